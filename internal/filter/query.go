package filter

import (
	"net/url"
	"strconv"
	"strings"

	"estate_bot/internal/model"
)

// Query parameter names understood by the listing endpoint.
const (
	ParamType       = "type"
	ParamDistrict   = "district"
	ParamCondition  = "condition"
	ParamRooms      = "rooms"
	ParamAreaRange  = "area_range"
	ParamPriceRange = "price_range"
	ParamAreaGTE    = "area__gte"
	ParamAreaLTE    = "area__lte"
	ParamPriceGTE   = "price__gte"
	ParamPriceLTE   = "price__lte"
	ParamSearch     = "search"
	ParamOrdering   = "ordering"
	ParamPage       = "page"
)

// Ordering is a sort key for listing queries.
type Ordering string

// Supported orderings. The default is newest first by insertion order, which
// stays stable even when created_at was backdated on import.
const (
	OrderNewest      Ordering = "-id"
	OrderCreatedDesc Ordering = "-created_at"
	OrderCreatedAsc  Ordering = "created_at"
	OrderPriceAsc    Ordering = "price"
	OrderPriceDesc   Ordering = "-price"
	OrderAreaAsc     Ordering = "area"
	OrderAreaDesc    Ordering = "-area"
)

var knownOrderings = map[Ordering]bool{
	OrderNewest: true, OrderCreatedDesc: true, OrderCreatedAsc: true,
	OrderPriceAsc: true, OrderPriceDesc: true,
	OrderAreaAsc: true, OrderAreaDesc: true,
}

// Query is the parsed form of a listing search request. Empty slices mean the
// facet is not filtered.
type Query struct {
	Types      []string
	Districts  []string
	Conditions []string
	Rooms      []int
	Area       Ranges
	Price      Ranges
	Search     string
	Ordering   Ordering
	Page       int
}

// ParseQuery builds a Query from request parameters. Malformed numbers are
// ignored rather than rejected.
func ParseQuery(v url.Values) Query {
	q := Query{
		Types:      nonEmpty(v[ParamType]),
		Districts:  nonEmpty(v[ParamDistrict]),
		Conditions: nonEmpty(v[ParamCondition]),
		Search:     strings.TrimSpace(v.Get(ParamSearch)),
		Ordering:   OrderNewest,
		Page:       1,
	}

	for _, s := range v[ParamRooms] {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		q.Rooms = append(q.Rooms, n)
	}

	q.Area = numericFacet(v, ParamAreaRange, ParamAreaGTE, ParamAreaLTE, ParseRange)
	q.Price = numericFacet(v, ParamPriceRange, ParamPriceGTE, ParamPriceLTE, ParsePriceRange)

	if o := Ordering(v.Get(ParamOrdering)); knownOrderings[o] {
		q.Ordering = o
	}
	if p, err := strconv.Atoi(v.Get(ParamPage)); err == nil && p > 0 {
		q.Page = p
	}
	return q
}

// numericFacet resolves the union for one numeric facet. Range tokens win
// whenever any are supplied; otherwise the gte/lte pair is used.
func numericFacet(v url.Values, rangeKey, gteKey, lteKey string, parse func(string) (Range, error)) Ranges {
	if tokens := v[rangeKey]; len(tokens) > 0 {
		rs := ParseRanges(tokens, parse)
		if rs.Unconstrained() {
			return nil
		}
		return rs
	}

	var r Range
	if lo, err := parse(v.Get(gteKey)); err == nil {
		r.Min = lo.Min
	}
	if hi, err := parse(":" + v.Get(lteKey)); err == nil {
		r.Max = hi.Max
	}
	if r.Unbounded() {
		return nil
	}
	return Ranges{r}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Values encodes a stored filter set as listing query parameters. Facets marked
// as any are omitted, which the endpoint reads as unconstrained.
func Values(fs model.FilterSet, page int) url.Values {
	v := url.Values{}
	if page > 0 {
		v.Set(ParamPage, strconv.Itoa(page))
	}
	addChoice(v, ParamType, fs.Type)
	addChoice(v, ParamDistrict, fs.District)
	addChoice(v, ParamCondition, fs.Condition)
	if !fs.Rooms.Any {
		for _, n := range fs.Rooms.Values {
			v.Add(ParamRooms, strconv.Itoa(n))
		}
	}
	if !fs.Area.Any {
		for _, t := range fs.Area.Ranges {
			v.Add(ParamAreaRange, t)
		}
	}
	if !fs.Price.Any {
		for _, t := range fs.Price.Ranges {
			v.Add(ParamPriceRange, t)
		}
	}
	return v
}

func addChoice(v url.Values, key string, c model.Choice[string]) {
	if c.Any {
		return
	}
	for _, s := range c.Values {
		v.Add(key, s)
	}
}
