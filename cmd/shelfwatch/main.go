package main

import (
	"context"

	"shelfwatch/cmd/shelfwatch/commands"
	"shelfwatch/lib/serviceutil"
	"shelfwatch/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "shelfwatch")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
