package ethpool

import (
	"fmt"
	"net/url"
	"strings"
)

// Category is the fixed grouping a method belongs to. It decides how the
// request path is built and whether the request is signed.
type Category int

const (
	CategoryPublic Category = iota
	CategoryPrivate
	CategoryPool
	CategoryMiner
	CategoryWorker
)

// resolutionOrder is the order in which categories are searched.
var resolutionOrder = [...]Category{
	CategoryPublic,
	CategoryPrivate,
	CategoryPool,
	CategoryMiner,
	CategoryWorker,
}

// Categories returns every category in resolution order.
func Categories() []Category {
	out := resolutionOrder
	return out[:]
}

func (c Category) String() string {
	switch c {
	case CategoryPublic:
		return "public"
	case CategoryPrivate:
		return "private"
	case CategoryPool:
		return "pool"
	case CategoryMiner:
		return "miner"
	case CategoryWorker:
		return "worker"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Signed reports whether requests in this category carry API-Key/API-Sign.
func (c Category) Signed() bool { return c == CategoryPrivate }

// Path placeholders substituted for miner and worker methods.
const (
	placeholderMiner  = ":miner"
	placeholderWorker = ":worker"
)

// Parameter names that supply placeholder values.
const (
	ParamMiner  = "miner"
	ParamWorker = "worker"
)

// MethodTable lists the method names of each category.
type MethodTable struct {
	Public  []string
	Private []string
	Pool    []string
	Miner   []string
	Worker  []string
}

// DefaultMethods returns the endpoint set served by the pool API.
func DefaultMethods() MethodTable {
	return MethodTable{
		Pool: []string{
			"poolStats",
			"credits",
			"blocks/history",
			"networkStats",
			"servers/history",
		},
		Miner: []string{
			"miner/:miner/blocks",
			"miner/:miner/history",
			"miner/:miner/payouts",
			"miner/:miner/rounds",
			"miner/:miner/settings",
			"miner/:miner/currentStats",
		},
		Worker: []string{
			"miner/:miner/workers",
			"miner/:miner/worker/:worker/history",
			"miner/:miner/worker/:worker/currentStats",
			"miner/:miner/workers/monitor",
		},
	}
}

// Names returns the method names listed under category c.
func (t MethodTable) Names(c Category) []string {
	switch c {
	case CategoryPublic:
		return t.Public
	case CategoryPrivate:
		return t.Private
	case CategoryPool:
		return t.Pool
	case CategoryMiner:
		return t.Miner
	case CategoryWorker:
		return t.Worker
	}
	return nil
}

// router maps a method name to its single category. It is built once and
// never mutated.
type router struct {
	byName map[string]Category
}

// newRouter compiles t. A name listed under two categories is rejected.
func newRouter(t MethodTable) (*router, error) {
	r := &router{byName: make(map[string]Category)}
	for _, c := range resolutionOrder {
		for _, name := range t.Names(c) {
			if name == "" {
				return nil, newError("ethpool.newRouter", ErrConfig, fmt.Sprintf("empty method name in %s", c))
			}
			if prev, ok := r.byName[name]; ok {
				return nil, newError("ethpool.newRouter", ErrConfig,
					fmt.Sprintf("method %q listed as both %s and %s", name, prev, c))
			}
			r.byName[name] = c
		}
	}
	return r, nil
}

// Resolve returns the category of method.
func (r *router) Resolve(method string) (Category, error) {
	c, ok := r.byName[method]
	if !ok {
		return 0, newError("ethpool.Resolve", ErrUnknownMethod, fmt.Sprintf("%q is not a valid API method", method))
	}
	return c, nil
}

// BuildPath returns the request path for method in category c. For miner and
// worker methods the placeholder values are taken from params (falling back
// to defaultMiner for :miner) and removed from the returned parameters, which
// are otherwise a copy of params.
func BuildPath(c Category, method, version string, params Params, defaultMiner string) (string, Params, error) {
	rest := params.Clone()

	switch c {
	case CategoryPublic:
		return "/" + version + "/public/" + method, rest, nil
	case CategoryPrivate, CategoryPool:
		return "/" + method, rest, nil
	case CategoryMiner, CategoryWorker:
		path := method
		if strings.Contains(path, placeholderMiner) {
			miner, err := takeIdentifier(rest, ParamMiner, defaultMiner)
			if err != nil {
				return "", nil, err
			}
			path = strings.ReplaceAll(path, placeholderMiner, url.PathEscape(miner))
		}
		if c == CategoryWorker && strings.Contains(path, placeholderWorker) {
			worker, err := takeIdentifier(rest, ParamWorker, "")
			if err != nil {
				return "", nil, err
			}
			path = strings.ReplaceAll(path, placeholderWorker, url.PathEscape(worker))
		}
		return "/" + path, rest, nil
	default:
		return "", nil, newError("ethpool.BuildPath", ErrUnknownMethod, fmt.Sprintf("unhandled category %s", c))
	}
}

// takeIdentifier removes key from params and returns its string form.
func takeIdentifier(params Params, key, fallback string) (string, error) {
	v, ok := params[key]
	delete(params, key)
	if !ok {
		if fallback == "" {
			return "", newError("ethpool.BuildPath", ErrMissingIdentifier, fmt.Sprintf("%q is required", key))
		}
		return fallback, nil
	}
	s, err := stringify(v)
	if err != nil {
		return "", newError("ethpool.BuildPath", ErrEncoding, fmt.Sprintf("%q: %v", key, err))
	}
	if s == "" {
		return "", newError("ethpool.BuildPath", ErrMissingIdentifier, fmt.Sprintf("%q is empty", key))
	}
	return s, nil
}
