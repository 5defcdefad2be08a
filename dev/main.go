// A fake product page for local development. Point the watcher at it:
//
//	go run ./dev
//	shelfwatch watch -c config.json5   # url: http://localhost:8123
//
// POST /toggle flips availability, POST /price?amount=249.99 changes the
// price, and -flip-every does the toggling on a timer so alerts fire on
// their own.
package main

import (
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Name}}</title></head>
<body>
	<h1>{{.Name}}</h1>
	<p>The finest development gadget money can buy.</p>
	{{if .InStock}}
	<span class="price">€{{.Price}}</span>
	<button>Add to Cart</button>
	{{else}}
	<p>Sold Out</p>
	<button>Notify Me</button>
	{{end}}
</body>
</html>
`))

type product struct {
	mu      sync.Mutex
	Name    string
	InStock bool
	Price   string
}

func (p *product) render(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := pageTemplate.Execute(w, p)
	if err != nil {
		slog.Error("failed to render page", "err", err)
	}
}

func (p *product) toggle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.InStock = !p.InStock
	inStock := p.InStock
	p.mu.Unlock()

	slog.Info("toggled availability", "in_stock", inStock)
	fmt.Fprintf(w, "in_stock: %v\n", inStock)
}

func (p *product) setPrice(w http.ResponseWriter, r *http.Request) {
	amount := r.URL.Query().Get("amount")
	_, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		http.Error(w, "amount must be a number", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.Price = amount
	p.mu.Unlock()

	slog.Info("changed price", "amount", amount)
	fmt.Fprintf(w, "price: %s\n", amount)
}

func main() {
	addr := flag.String("addr", "localhost:8123", "address to listen on")
	flipEvery := flag.Duration("flip-every", 0, "toggle availability on a timer (0 disables)")
	flag.Parse()

	page := &product{
		Name:    "Gadget",
		InStock: true,
		Price:   "279.00",
	}

	if *flipEvery > 0 {
		go func() {
			for range time.Tick(*flipEvery) {
				page.mu.Lock()
				page.InStock = !page.InStock
				inStock := page.InStock
				page.mu.Unlock()
				slog.Info("flipped availability", "in_stock", inStock)
			}
		}()
	}

	http.HandleFunc("/", page.render)
	http.HandleFunc("/toggle", page.toggle)
	http.HandleFunc("/price", page.setPrice)

	slog.Info("dev product page listening", "addr", *addr)
	err := http.ListenAndServe(*addr, nil)
	if err != nil {
		slog.Error("server stopped", "err", err.Error())
		os.Exit(1)
	}
}
