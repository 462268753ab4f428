package tool

import (
	"github.com/cloudwego/eino/schema"
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/tanpawarit/travelai/agent/provider"
)

const (
	ToolGetWeather    = "get_weather"
	ToolSearchHotels  = "search_hotels"
	ToolSearchFlights = "search_flights"
)

const datePattern = `^\d{4}-\d{2}-\d{2}$`

type param struct {
	name     string
	kind     schema.DataType
	desc     string
	required bool
	min, max *float64
	enum     []any
	pattern  string
}

type toolDef struct {
	name   string
	desc   string
	kind   provider.Kind
	params []param
}

func bound(v float64) *float64 { return &v }

var catalog = []toolDef{
	{
		name: ToolGetWeather,
		desc: "Belirtilen şehir için hava durumu bilgisini getirir. Anlık veya 5 güne kadar tahmin alınabilir.",
		kind: provider.KindWeather,
		params: []param{
			{name: "city", kind: schema.String, desc: "Hava durumu sorgulanacak şehir adı", required: true},
			{name: "days", kind: schema.Integer, desc: "Kaç günlük tahmin isteniyor (1=anlık/bugün, 2-5=çok günlük tahmin). Varsayılan 1.", min: bound(1), max: bound(5)},
		},
	},
	{
		name: ToolSearchHotels,
		desc: "Belirtilen konumda bütçe ve yıldız sayısına göre otel arar.",
		kind: provider.KindHotels,
		params: []param{
			{name: "location", kind: schema.String, desc: "Otel aranacak konum veya şehir adı", required: true},
			{name: "budget", kind: schema.Integer, desc: "Maksimum gecelik fiyat (opsiyonel)", min: bound(1)},
			{name: "star_rating", kind: schema.Integer, desc: "Otel yıldız sayısı (2, 3, 4, veya 5, opsiyonel)", enum: []any{2.0, 3.0, 4.0, 5.0}},
		},
	},
	{
		name: ToolSearchFlights,
		desc: "Belirtilen kalkış ve varış noktaları arasında uçuş arar.",
		kind: provider.KindFlights,
		params: []param{
			{name: "departure", kind: schema.String, desc: "Kalkış havalimanı kodu (örn: IST, SAW, ESB, ADB)", required: true},
			{name: "arrival", kind: schema.String, desc: "Varış havalimanı kodu (örn: CDG, JFK, LHR, AMS)", required: true},
			{name: "outbound_date", kind: schema.String, desc: "Gidiş tarihi (YYYY-MM-DD formatında)", required: true, pattern: datePattern},
			{name: "return_date", kind: schema.String, desc: "Dönüş tarihi (opsiyonel, YYYY-MM-DD formatında)", pattern: datePattern},
			{name: "adults", kind: schema.Integer, desc: "Yetişkin yolcu sayısı (varsayılan: 1)", min: bound(1)},
		},
	},
}

func (s toolDef) info() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(s.params))
	for _, p := range s.params {
		params[p.name] = &schema.ParameterInfo{Type: p.kind, Desc: p.desc, Required: p.required}
	}
	return &schema.ToolInfo{
		Name:        s.name,
		Desc:        s.desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

// openAPISchema is the validation schema. kin-openapi is what eino itself
// uses to describe tool parameters.
func (s toolDef) openAPISchema() *openapi3.Schema {
	obj := openapi3.NewObjectSchema()
	var required []string
	for _, p := range s.params {
		var prop *openapi3.Schema
		switch p.kind {
		case schema.Integer:
			prop = openapi3.NewIntegerSchema()
		default:
			prop = openapi3.NewStringSchema()
			if p.required {
				prop = prop.WithMinLength(1)
			}
		}
		prop.Description = p.desc
		if p.min != nil {
			prop = prop.WithMin(*p.min)
		}
		if p.max != nil {
			prop = prop.WithMax(*p.max)
		}
		if len(p.enum) > 0 {
			prop = prop.WithEnum(p.enum...)
		}
		if p.pattern != "" {
			prop = prop.WithPattern(p.pattern)
		}
		obj = obj.WithProperty(p.name, prop)
		if p.required {
			required = append(required, p.name)
		}
	}
	obj.Required = required
	return obj
}

func (s toolDef) param(name string) (param, bool) {
	for _, p := range s.params {
		if p.name == name {
			return p, true
		}
	}
	return param{}, false
}
