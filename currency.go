package sheetatlas

import "strings"

// CurrencyConfidence ranks how sure the inference is about a column's
// currency.
type CurrencyConfidence int

const (
	// CurrencyLow means only an ambiguous symbol was seen, e.g. a bare "$".
	CurrencyLow CurrencyConfidence = iota
	// CurrencyInferred means a symbol plus a contextual clue, such as an
	// ISO code literal or a symbol used by a single currency.
	CurrencyInferred
	// CurrencyUnambiguous means the format names an explicit locale
	// alongside the symbol, e.g. "[$€-407]".
	CurrencyUnambiguous
)

// String returns a human-readable name for the confidence tier.
func (c CurrencyConfidence) String() string {
	switch c {
	case CurrencyUnambiguous:
		return "Unambiguous"
	case CurrencyInferred:
		return "Inferred"
	default:
		return "Low"
	}
}

// CurrencyInfo describes the currency context inferred for a column from
// its number format codes. Separators are the format's invariant codes, not
// the rendered locale characters.
type CurrencyInfo struct {
	Symbol        string
	Code          string // ISO 4217
	DecimalSep    string
	ThousandsSep  string
	DecimalPlaces int
	SymbolSuffix  bool // symbol renders after the amount
	Confidence    CurrencyConfidence
}

// currencySymbols maps display symbols to their best-guess ISO code.
var currencySymbols = map[string]string{
	"$":  "USD",
	"€":  "EUR",
	"£":  "GBP",
	"¥":  "JPY",
	"₹":  "INR",
	"₩":  "KRW",
	"₽":  "RUB",
	"₺":  "TRY",
	"฿":  "THB",
	"R$": "BRL",
	"kr": "SEK",
	"zł": "PLN",
	"Fr": "CHF",
}

// ambiguousSymbols are shared by several currencies, so a bare sighting is
// low confidence.
var ambiguousSymbols = map[string]bool{
	"$":  true, // USD, CAD, AUD, MXN, ...
	"¥":  true, // JPY, CNY
	"kr": true, // SEK, NOK, DKK
	"Fr": true, // CHF, XPF
}

// currencyCodes is the ISO codes the inference recognizes as literals.
var currencyCodes = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CNY": true,
	"INR": true, "KRW": true, "RUB": true, "TRY": true, "THB": true,
	"BRL": true, "SEK": true, "NOK": true, "DKK": true, "PLN": true,
	"CHF": true, "CAD": true, "AUD": true, "NZD": true, "MXN": true,
}

// lcidCurrencies maps Windows locale ids (as they appear in "[$…-409]"
// sections, upper-case hex) to ISO codes.
var lcidCurrencies = map[string]string{
	"409":  "USD", // en-US
	"1009": "CAD", // en-CA
	"C09":  "AUD", // en-AU
	"1409": "NZD", // en-NZ
	"809":  "GBP", // en-GB
	"407":  "EUR", // de-DE
	"40C":  "EUR", // fr-FR
	"410":  "EUR", // it-IT
	"C0A":  "EUR", // es-ES
	"413":  "EUR", // nl-NL
	"40B":  "EUR", // fi-FI
	"411":  "JPY", // ja-JP
	"804":  "CNY", // zh-CN
	"412":  "KRW", // ko-KR
	"419":  "RUB", // ru-RU
	"416":  "BRL", // pt-BR
	"41D":  "SEK", // sv-SE
	"414":  "NOK", // nb-NO
	"406":  "DKK", // da-DK
	"415":  "PLN", // pl-PL
	"41F":  "TRY", // tr-TR
	"439":  "INR", // hi-IN
	"41E":  "THB", // th-TH
	"807":  "CHF", // de-CH
	"80A":  "MXN", // es-MX
}

// regionCurrencies resolves the region half of BCP 47 locale tags that newer
// producers write into "[$…-en-US]" sections.
var regionCurrencies = map[string]string{
	"US": "USD", "CA": "CAD", "AU": "AUD", "NZ": "NZD", "GB": "GBP",
	"DE": "EUR", "FR": "EUR", "IT": "EUR", "ES": "EUR", "NL": "EUR",
	"FI": "EUR", "JP": "JPY", "CN": "CNY", "KR": "KRW", "RU": "RUB",
	"BR": "BRL", "SE": "SEK", "NO": "NOK", "DK": "DKK", "PL": "PLN",
	"TR": "TRY", "IN": "INR", "TH": "THB", "CH": "CHF", "MX": "MXN",
}

// InferCurrency inspects a column's number format codes and returns the
// majority currency context, or nil when no format carries currency markers.
func InferCurrency(formats []string) *CurrencyInfo {
	type tally struct {
		info  *CurrencyInfo
		count int
		order int
	}
	seen := make(map[string]*tally)
	next := 0
	for _, code := range formats {
		info, ok := parseCurrencyFormat(code)
		if !ok {
			continue
		}
		key := info.Symbol + "\x00" + info.Code
		if t, dup := seen[key]; dup {
			t.count++
			continue
		}
		seen[key] = &tally{info: info, count: 1, order: next}
		next++
	}
	var best *tally
	for _, t := range seen {
		if best == nil || t.count > best.count || (t.count == best.count && t.order < best.order) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	return best.info
}

// parseCurrencyFormat extracts currency context from one number format code.
func parseCurrencyFormat(code string) (*CurrencyInfo, bool) {
	if code == "" {
		return nil, false
	}
	primary := code
	if i := strings.IndexByte(primary, ';'); i >= 0 {
		primary = primary[:i]
	}

	var (
		symbol     string
		isoCode    string
		locale     string
		symbolPos  = -1
		digitPos   = -1
		grouping   bool
		inQuote    bool
		quoted     strings.Builder
		quoteStart int
	)

	runes := []rune(primary)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inQuote {
			if r == '"' {
				inQuote = false
				lit := quoted.String()
				if sym, pos, iso, ok := classifyLiteral(lit, quoteStart); ok {
					if iso != "" && isoCode == "" {
						isoCode = iso
						if symbolPos < 0 {
							symbolPos = pos
						}
					}
					if sym != "" && symbol == "" {
						symbol = sym
						symbolPos = pos
					}
				}
				continue
			}
			quoted.WriteRune(r)
			continue
		}
		switch r {
		case '"':
			inQuote = true
			quoted.Reset()
			quoteStart = i
		case '[':
			end := i + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			body := string(runes[i+1 : min(end, len(runes))])
			if sym, loc, ok := parseCurrencySection(body); ok {
				symbol = sym
				locale = loc
				symbolPos = i
			}
			i = end
		case '\\':
			i++
		case '0', '#', '?':
			if digitPos < 0 {
				digitPos = i
			}
		case ',':
			if digitPos >= 0 {
				grouping = true
			}
		default:
			if symbol == "" {
				if sym, ok := bareSymbolAt(runes, i); ok {
					symbol = sym
					symbolPos = i
					i += len([]rune(sym)) - 1
				}
			}
		}
	}

	if symbol == "" && isoCode == "" {
		return nil, false
	}

	info := &CurrencyInfo{
		Symbol:        symbol,
		Code:          isoCode,
		DecimalSep:    ".",
		DecimalPlaces: formatDecimalPlaces(code),
		SymbolSuffix:  digitPos >= 0 && symbolPos > digitPos,
	}
	if grouping {
		info.ThousandsSep = ","
	}

	switch {
	case locale != "":
		if iso, ok := resolveLocaleCurrency(locale); ok && info.Code == "" {
			info.Code = iso
		}
		info.Confidence = CurrencyUnambiguous
	case info.Code != "":
		info.Confidence = CurrencyInferred
		if symbol == "" {
			info.Symbol = symbolForCode(info.Code)
		}
	case !ambiguousSymbols[symbol]:
		info.Code = currencySymbols[symbol]
		info.Confidence = CurrencyInferred
	default:
		info.Code = currencySymbols[symbol]
		info.Confidence = CurrencyLow
	}
	return info, true
}

// classifyLiteral decides whether a quoted literal is a currency symbol or
// an ISO code.
func classifyLiteral(lit string, pos int) (symbol string, symPos int, iso string, ok bool) {
	trimmed := strings.TrimSpace(lit)
	if trimmed == "" {
		return "", 0, "", false
	}
	if currencyCodes[strings.ToUpper(trimmed)] {
		return "", pos, strings.ToUpper(trimmed), true
	}
	if _, known := currencySymbols[trimmed]; known {
		return trimmed, pos, "", true
	}
	return "", 0, "", false
}

// parseCurrencySection parses the body of a "[$…-LCID]" bracket: symbol
// before the dash, locale after it.
func parseCurrencySection(body string) (symbol, locale string, ok bool) {
	if !strings.HasPrefix(body, "$") {
		return "", "", false
	}
	body = body[1:]
	if i := strings.IndexByte(body, '-'); i >= 0 {
		return body[:i], body[i+1:], true
	}
	return body, "", body != ""
}

// resolveLocaleCurrency turns an LCID hex id or a BCP 47 tag into an ISO
// currency code.
func resolveLocaleCurrency(locale string) (string, bool) {
	up := strings.ToUpper(locale)
	if iso, ok := lcidCurrencies[up]; ok {
		return iso, true
	}
	if i := strings.LastIndexByte(up, '-'); i >= 0 {
		if iso, ok := regionCurrencies[up[i+1:]]; ok {
			return iso, true
		}
	}
	return "", false
}

// bareSymbolAt matches a known currency symbol at runes[i] outside quotes.
func bareSymbolAt(runes []rune, i int) (string, bool) {
	rest := string(runes[i:])
	for sym := range currencySymbols {
		if strings.HasPrefix(rest, sym) {
			return sym, true
		}
	}
	return "", false
}

func symbolForCode(code string) string {
	for sym, iso := range currencySymbols {
		if iso == code && !ambiguousSymbols[sym] {
			return sym
		}
	}
	return ""
}

// StripCurrency removes currency decoration from a text amount: leading or
// trailing symbols and ISO codes, and accounting-style parentheses, which
// become a minus sign. It reports false when nothing was stripped or when
// stripping would leave something that cannot start a number.
func StripCurrency(s string) (string, bool) {
	out := strings.TrimSpace(s)
	neg := false
	if len(out) >= 2 && out[0] == '(' && out[len(out)-1] == ')' {
		out = strings.TrimSpace(out[1 : len(out)-1])
		neg = true
	}

	stripped := false
	for changed := true; changed; {
		changed = false
		for sym := range currencySymbols {
			if rest, ok := strings.CutPrefix(out, sym); ok {
				out = strings.TrimSpace(rest)
				stripped, changed = true, true
			}
			if rest, ok := strings.CutSuffix(out, sym); ok {
				out = strings.TrimSpace(rest)
				stripped, changed = true, true
			}
		}
		up := strings.ToUpper(out)
		for code := range currencyCodes {
			if strings.HasPrefix(up, code) {
				out = strings.TrimSpace(out[len(code):])
				up = strings.ToUpper(out)
				stripped, changed = true, true
			}
			if strings.HasSuffix(up, code) {
				out = strings.TrimSpace(out[:len(out)-len(code)])
				up = strings.ToUpper(out)
				stripped, changed = true, true
			}
		}
	}

	if !stripped && !neg {
		return s, false
	}
	if out == "" || !strings.ContainsAny(out[:1], "0123456789+-.") {
		return s, false
	}
	if neg && !strings.HasPrefix(out, "-") {
		out = "-" + out
	}
	return out, true
}
