package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fenics/pkg/runtime"
)

// HTTP implements runtime.Bridge for the optional get/get_json/post methods
// of §6.3. It is registered only when the host opts in, since network
// access is not part of the language core.
type HTTP struct {
	Client *http.Client
	log    *slog.Logger
}

func NewHTTP() *HTTP {
	return &HTTP{Client: &http.Client{Timeout: 10 * time.Second}, log: slog.Default()}
}

func (h *HTTP) Name() string { return "http" }

// SetLogger satisfies runtime.BridgeLogger; RegisterBridge calls it with the
// evaluator's own logger so http calls are logged at Debug level per §4.5.
func (h *HTTP) SetLogger(log *slog.Logger) {
	h.log = log
}

func (h *HTTP) Call(method string, args []*runtime.Value) (*runtime.Value, error) {
	switch method {
	case "get":
		return h.get(args)
	case "get_json":
		return h.getJSON(args)
	case "post":
		return h.post(args)
	default:
		return nil, fmt.Errorf("http has no method %q", method)
	}
}

func (h *HTTP) get(args []*runtime.Value) (*runtime.Value, error) {
	if len(args) != 1 || args[0].Type != runtime.ValueTypeString {
		return nil, fmt.Errorf("http.get expects 1 string argument")
	}
	h.log.Debug("http call", "method", "get", "url", args[0].Str)
	resp, err := h.Client.Get(args[0].Str)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(string(body)), nil
}

func (h *HTTP) getJSON(args []*runtime.Value) (*runtime.Value, error) {
	body, err := h.get(args)
	if err != nil {
		return nil, err
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(body.Str), &decoded); err != nil {
		return nil, fmt.Errorf("http.get_json: invalid JSON response: %w", err)
	}
	return fromJSON(decoded), nil
}

func (h *HTTP) post(args []*runtime.Value) (*runtime.Value, error) {
	if len(args) != 2 || args[0].Type != runtime.ValueTypeString || args[1].Type != runtime.ValueTypeString {
		return nil, fmt.Errorf("http.post expects (string url, string body)")
	}
	h.log.Debug("http call", "method", "post", "url", args[0].Str)
	resp, err := h.Client.Post(args[0].Str, "application/json", strings.NewReader(args[1].Str))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(string(respBody)), nil
}

// fromJSON converts a decoded encoding/json value tree into Fenics Values,
// mirroring the Array/Object/String/Float/Bool/Null variants §3.1 defines.
func fromJSON(v interface{}) *runtime.Value {
	switch t := v.(type) {
	case nil:
		return runtime.NewNull()
	case bool:
		return runtime.NewBool(t)
	case float64:
		return runtime.NewFloat(t)
	case string:
		return runtime.NewString(t)
	case []interface{}:
		elems := make([]*runtime.Value, len(t))
		for i, e := range t {
			elems[i] = fromJSON(e)
		}
		return runtime.NewArray(elems)
	case map[string]interface{}:
		obj := runtime.NewObject()
		for k, val := range t {
			obj.Set(k, fromJSON(val))
		}
		return runtime.NewObjectValue(obj)
	default:
		return runtime.NewNull()
	}
}
