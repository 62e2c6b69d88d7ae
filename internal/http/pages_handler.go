package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/WALKERIS/visionrpweb/internal/catalog"
	"github.com/WALKERIS/visionrpweb/internal/domain"
	"github.com/WALKERIS/visionrpweb/internal/visitor"
)

//go:embed templates/*
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Catalog is the read side of the vehicle catalog.
type Catalog interface {
	Get(id string) (domain.Vehicle, error)
	Filter(q catalog.Query) []domain.Vehicle
}

// StatusLabel reports the current player count text.
type StatusLabel interface {
	Label() string
}

// Links are the external destinations shown on the landing page. An empty
// link hides its button.
type Links struct {
	Rules   string
	Connect string
	Discord string
}

var DefaultLinks = Links{
	Rules:   "https://visionrp-3.gitbook.io/visionrp-taisykles",
	Connect: "https://cfx.re/join/do39my",
}

type PageHandler struct {
	templates      map[string]*template.Template
	catalog        Catalog
	status         StatusLabel
	links          Links
	payPalClientID string
}

func NewPageHandler(c Catalog, status StatusLabel, payPalClientID string, links Links) (*PageHandler, error) {
	funcs := template.FuncMap{
		"price": formatPrice,
		"inc":   func(i int) int { return i + 1 },
	}
	pages := map[string]*template.Template{}
	for _, page := range []string{"landing.gohtml", "store.gohtml", "vehicle.gohtml"} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.gohtml", "templates/cart.gohtml", "templates/"+page)
		if err != nil {
			return nil, err
		}
		pages[page] = tmpl
	}
	return &PageHandler{
		templates:      pages,
		catalog:        c,
		status:         status,
		links:          links,
		payPalClientID: payPalClientID,
	}, nil
}

// Static serves the embedded script and style assets.
func Static() http.Handler {
	return http.FileServer(http.FS(staticFS))
}

type filterOption struct {
	Value  string
	Label  string
	Active bool
}

type pageData struct {
	Title      string
	User       *domain.User
	SigningOut bool
	Flashes    []visitor.Flash
	Cart       domain.CartSnapshot
}

func newPageData(v *visitor.Visitor, title string) pageData {
	return pageData{
		Title:      title,
		User:       v.Identity.User(),
		SigningOut: v.Identity.Busy(),
		Flashes:    v.PopFlashes(),
		Cart:       v.Cart.Snapshot(),
	}
}

// GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	data := struct {
		pageData
		StatusLabel string
		RulesURL    string
		ConnectURL  string
		DiscordURL  string
	}{
		pageData:    newPageData(v, "Home"),
		StatusLabel: h.status.Label(),
		RulesURL:    h.links.Rules,
		ConnectURL:  h.links.Connect,
		DiscordURL:  h.links.Discord,
	}
	h.render(w, r, "landing.gohtml", data)
}

// GET /store?type=all|new|used&q=search
func (h *PageHandler) Store(w http.ResponseWriter, r *http.Request) {
	v := visitorFromContext(r.Context())
	q := catalog.NewQuery(r.URL.Query().Get("type"), r.URL.Query().Get("q"))

	filters := make([]filterOption, 0, 3)
	for _, f := range []struct{ value, label string }{
		{catalog.FilterAll, "All"},
		{string(domain.VehicleNew), "New"},
		{string(domain.VehicleUsed), "Used"},
	} {
		filters = append(filters, filterOption{Value: f.value, Label: f.label, Active: q.Type == f.value})
	}

	data := struct {
		pageData
		Vehicles       []domain.Vehicle
		Filters        []filterOption
		Search         string
		PayPalClientID string
	}{
		pageData:       newPageData(v, "Store"),
		Vehicles:       h.catalog.Filter(q),
		Filters:        filters,
		Search:         q.Search,
		PayPalClientID: h.payPalClientID,
	}
	h.render(w, r, "store.gohtml", data)
}

// GET /store/vehicles/{id}
func (h *PageHandler) Vehicle(w http.ResponseWriter, r *http.Request) {
	vehicle, err := h.catalog.Get(chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrVehicleNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	v := visitorFromContext(r.Context())
	data := struct {
		pageData
		Vehicle domain.Vehicle
	}{
		pageData: newPageData(v, vehicle.Name),
		Vehicle:  vehicle,
	}
	h.render(w, r, "vehicle.gohtml", data)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, page, data); err != nil {
		slog.ErrorContext(r.Context(), "render page failed", slog.String("page", page), slog.Any("err", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// formatPrice renders a whole-dollar amount with thousands separators, and
// keeps cents only when there are some.
func formatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsInteger() {
		s = d.StringFixed(0)
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
