// Package request decodes query strings into typed structs.
package request

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("schema")
	// Comma separated lists: ?amenities=wifi,parking
	d.RegisterConverter([]string{}, func(s string) reflect.Value {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return reflect.ValueOf(out)
	})
	return d
}

// DecodeQuery fills dst from r's query string. Conversion failures are
// reported per field.
func DecodeQuery(r *http.Request, dst interface{}) (map[string]string, error) {
	err := decoder.Decode(dst, r.URL.Query())
	if err == nil {
		return nil, nil
	}

	var multi schema.MultiError
	if errors.As(err, &multi) {
		details := make(map[string]string, len(multi))
		for field, ferr := range multi {
			var conv schema.ConversionError
			if errors.As(ferr, &conv) {
				details[field] = fmt.Sprintf("Invalid value for %s", field)
				continue
			}
			details[field] = ferr.Error()
		}
		return details, nil
	}
	return nil, err
}

// Page normalizes page/limit query values.
type Page struct {
	Page  int
	Limit int
}

// Offset is the row offset of the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// NewPage clamps page to >= 1 and limit to [1, maxLimit], using defLimit
// when limit is unset.
func NewPage(page, limit, defLimit, maxLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}
