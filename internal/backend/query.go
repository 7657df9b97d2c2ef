package backend

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Query is one filter, ordering or paging clause of a document listing.
type Query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

func Equal(attribute string, values ...any) Query {
	return Query{Method: "equal", Attribute: attribute, Values: values}
}

// Search is a full-text match; the attribute needs a fulltext index.
func Search(attribute, term string) Query {
	return Query{Method: "search", Attribute: attribute, Values: []any{term}}
}

func IsNotNull(attribute string) Query {
	return Query{Method: "isNotNull", Attribute: attribute}
}

func OrderDesc(attribute string) Query {
	return Query{Method: "orderDesc", Attribute: attribute}
}

func Limit(n int) Query {
	return Query{Method: "limit", Values: []any{n}}
}

// encodeQueries renders queries as repeated queries[] parameters.
func encodeQueries(queries []Query) (url.Values, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	v := url.Values{}
	for i, q := range queries {
		b, err := json.Marshal(q)
		if err != nil {
			return nil, fmt.Errorf("encode query %d: %w", i, err)
		}
		v.Add("queries[]", string(b))
	}
	return v, nil
}
