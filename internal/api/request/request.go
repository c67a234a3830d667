// Package request decodes signal requests at the transport edge, applying
// form defaults and field-level checks before the core validator runs.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/newthinker/binsig/internal/core"
	"github.com/newthinker/binsig/internal/market"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 64 << 10

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report json names so messages match the wire fields
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// New returns a request populated with the form defaults. The default
// tags are static, so a failure is a programming error and panics.
func New() core.Request {
	var req core.Request
	if err := defaults.Set(&req); err != nil {
		panic(fmt.Sprintf("applying request defaults: %v", err))
	}
	return req
}

// DecodeJSON reads a JSON request body on top of the defaults and checks it.
func DecodeJSON(r *http.Request) (core.Request, error) {
	req := New()

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, core.WrapError(core.ErrRequestInvalid, fmt.Errorf("decoding body: %w", err))
	}
	return req, Check(req)
}

// DecodeForm reads an HTML form submission. Checkboxes that are absent
// are off, so the boolean defaults do not apply to forms.
func DecodeForm(w http.ResponseWriter, r *http.Request) (core.Request, error) {
	req := New()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, core.WrapError(core.ErrRequestInvalid, fmt.Errorf("parsing form: %w", err))
	}
	f := r.PostForm

	req.Market = strings.TrimSpace(f.Get("market"))
	req.Start = strings.TrimSpace(f.Get("start_time"))
	req.End = strings.TrimSpace(f.Get("end_time"))
	if v := f.Get("trend_strength"); v != "" {
		req.TrendStrength = core.TrendStrength(v)
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"timeframe", &req.Timeframe},
		{"count", &req.Count},
		{"days_analyze", &req.DaysAnalyze},
		{"backtest_days", &req.BacktestDays},
	}
	for _, field := range ints {
		v := f.Get(field.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, core.WithMessage(core.ErrRequestInvalid, field.name, field.name+" must be a whole number")
		}
		*field.dst = n
	}

	if v := f.Get("accuracy"); v != "" {
		acc, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, core.WithMessage(core.ErrRequestInvalid, "accuracy", "accuracy must be a number")
		}
		req.Accuracy = acc
	}

	req.Martingale = checked(f.Get("martingale"))
	req.NewsFilter = checked(f.Get("news_filter"))
	req.VolatilityFilter = checked(f.Get("volatility_filter"))
	req.Backtest = checked(f.Get("backtest"))

	return req, Check(req)
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes", "enabled":
		return true
	}
	return false
}

// Check runs the field-level rules and the market whitelist.
func Check(req core.Request) error {
	if err := validatorInstance().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return core.WithMessage(core.ErrRequestInvalid, fe.Field(), message(fe))
		}
		return core.WrapError(core.ErrRequestInvalid, err)
	}
	if !market.IsSupported(req.Market) {
		return core.WithMessage(core.ErrUnsupportedMarket, "market",
			fmt.Sprintf("market %q is not supported", req.Market))
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
