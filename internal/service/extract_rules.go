package service

import (
	"regexp"

	"assistant/internal/model"
)

// Boundaries for words that may start or end with non-ASCII letters,
// where \b (ASCII only) does not apply.
const (
	lb  = `(?:^|[^\p{L}\d])`
	rb  = `(?:$|[^\p{L}])`
	num = `(\d+(?:[.,]\d+)*)`
)

// rule maps a pattern to the value it stands for. Lists of rules are
// evaluated in order and the first match wins.
type rule[T any] struct {
	value   T
	pattern *regexp.Regexp
}

// firstMatch returns the value of the first rule whose pattern matches text
func firstMatch[T any](rules []rule[T], text string) (T, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.value, true
		}
	}
	var zero T
	return zero, false
}

// Apartment is checked before House: "căn hộ trong nhà phố" is an apartment.
var typeRules = []rule[model.PropertyType]{
	{model.Apartment, regexp.MustCompile(`apartment|căn hộ|can ho|chung cư|chung cu|condo|` + lb + `flat` + rb)},
	{model.Villa, regexp.MustCompile(`villa|biệt thự|biet thu|mansion|penthouse`)},
	{model.House, regexp.MustCompile(lb + `house` + rb + `|townhouse|nhà\s+(?:riêng|phố|ở)|nha\s+(?:rieng|pho)|nhà liền kề|nha lien ke`)},
}

var countryRules = []rule[model.Country]{
	{model.Canada, regexp.MustCompile(`canada|canadian|toronto|vancouver|montreal|ottawa`)},
	{model.UnitedStates, regexp.MustCompile(lb + `(?:mỹ|hoa kỳ|hoa ky|usa|u\.s\.)` + rb + `|united states|america|new york|california|texas`)},
	{model.Vietnam, regexp.MustCompile(`việt nam|viet nam|vietnam|` + lb + `(?:vn|hcm)` + rb + `|hà nội|ha noi|hanoi|sài gòn|sai gon|saigon|hồ chí minh|ho chi minh|đà nẵng|da nang`)},
}

// countRule captures a count in group 1. When exclude is set and the
// pattern's group 2 participates, the match is skipped and scanning
// continues with the next occurrence.
type countRule struct {
	pattern *regexp.Regexp
	exclude bool
}

// bathroom words that must not be read as a bedroom count after a bare "phòng"
const bathroomTail = `(\s*(?:tắm|tam|vệ sinh|ve sinh))?`

var bedroomRules = []countRule{
	{pattern: regexp.MustCompile(`(\d+)\s*(?:phòng ngủ|phong ngu|bedrooms?|beds?|pn|ngủ)` + rb)},
	{pattern: regexp.MustCompile(lb + `(?:có|co|with)\s*(\d+)\s*(?:phòng|phong|rooms?)` + bathroomTail), exclude: true},
	{pattern: regexp.MustCompile(`(\d+)\s*br` + rb)},
	{pattern: regexp.MustCompile(`(\d+)\s*(?:phòng|phong|rooms?)` + bathroomTail), exclude: true},
}

var bathroomRules = []countRule{
	{pattern: regexp.MustCompile(`(\d+)\s*(?:phòng tắm|phong tam|phòng vệ sinh|nhà vệ sinh|wc|bathrooms?|baths?|toilets?)`)},
	{pattern: regexp.MustCompile(`(\d+)\s*ba` + rb)},
}

// firstPriceMatch returns the first match whose trailing guard group, if
// the pattern has one, did not participate.
func firstPriceMatch(p *regexp.Regexp, t string) []string {
	for _, m := range p.FindAllStringSubmatch(t, -1) {
		if len(m) > 3 && m[3] != "" {
			continue
		}
		return m
	}
	return nil
}

// priceBound says which end of the range a price cue sets
type priceBound int

const (
	boundMax priceBound = iota
	boundMin
	boundRange
)

func (b priceBound) String() string {
	switch b {
	case boundMax:
		return "max_price"
	case boundMin:
		return "min_price"
	default:
		return "price_range"
	}
}

const (
	moneyUnit    = `(?:k|nghìn|ngàn|nghin|triệu|trieu|tr|million)`
	moneySuffix  = `(?:k` + rb + `|nghìn|ngàn|nghin|triệu|trieu|tr` + rb + `|million|usd|đô|\$)`
	rangeJoin    = `\s*(?:đến|den|to|and|-|~)\s*`
	currencySign = `\$?\s*`

	// A count or size word right after a bare range means it is not a price
	// ("2-3 phòng ngủ", "50-80 m2"); the rule captures it so the match can be skipped.
	rangeTail = `(\s*(?:phòng|phong|pn|ngủ|ngu|bedrooms?|beds?|br|bathrooms?|baths?|tắm|wc|toilets?|m2|m²|mét|met|sq|ft|square|tầng|tang|floors?|người|nguoi|people|năm|nam|years?|tháng|thang|months?)` + rb + `)?`
)

// Price rules run in slice order; a later bound overwrites an earlier
// one, so a range always wins over a single under/over cue.
var priceRules = []rule[priceBound]{
	{boundMax, regexp.MustCompile(`(?:` + lb + `(?:dưới|duoi|under|below|less than|maximum|max|tối đa|toi da|không vượt quá|không quá|ko quá|khong qua)|<=|≤|<)\s*` + currencySign + num)},
	{boundMin, regexp.MustCompile(`(?:` + lb + `(?:trên|tren|over|above|more than|minimum|min|tối thiểu|toi thieu|từ|ít nhất|it nhat|at least)|>=|≥|>)\s*` + currencySign + num)},
	{boundRange, regexp.MustCompile(lb + `(?:từ|tu|from|between)\s*` + currencySign + num + `\s*` + moneyUnit + `?` + rangeJoin + currencySign + num)},
	{boundRange, regexp.MustCompile(currencySign + num + `\s*` + moneyUnit + `?` + rangeJoin + currencySign + num + rangeTail)},
}

// Magnitude markers looked up anywhere in the message
var (
	thousandMarker = regexp.MustCompile(`\d\s*k` + rb + `|nghìn|ngàn|nghin`)
	millionMarker  = regexp.MustCompile(`triệu|trieu|million|\d\s*tr` + rb)
)

var areaPattern = regexp.MustCompile(num + `\s*(?:m2|m²|mét vuông|met vuong|sq\.?\s*ft|sqft|ft2|ft²|square feet)`)

// Name introductions. Runs on the original text so the name keeps its case.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)` + lb + `(?:tên\s+(?:tôi|mình|em)|mình|em)\s+là\s+(\p{L}+)`),
	regexp.MustCompile(`(?i)\bmy\s+name\s+is\s+(\p{L}+)`),
}
