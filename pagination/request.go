package pagination

import "github.com/spf13/cast"

// Parameter names read by ParseRequest.
const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
)

// ParseRequest reads page and page_size from decoded request parameters.
//
// Missing, negative or non-numeric values fall back to page 0 and
// DefaultPageSize. page_size is capped at MaxPageSize.
func ParseRequest(params map[string]any) Request {
	req := Request{
		Index: intParam(params, ParamPage),
		Size:  intParam(params, ParamPageSize),
	}
	return req.Normalize()
}

func intParam(params map[string]any, name string) int {
	raw, ok := params[name]
	if !ok || raw == nil {
		return 0
	}
	n, err := cast.ToIntE(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
