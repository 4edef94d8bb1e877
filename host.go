// host.go — host capability policy and the bridge dispatcher.
//
// Capabilities are deny-by-default: a run only touches storage, the
// filesystem, the environment, the network, or the clock when the policy
// grants it. The dispatcher speaks the envelope codec from bridge.go; the
// guest-facing entry point is the __bridge native, available in
// strict_internal mode only.
package deka

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// HostPolicy is the operator-provided capability grant, loaded from YAML.
type HostPolicy struct {
	Capabilities struct {
		FS      bool `yaml:"fs"`
		Net     bool `yaml:"net"`
		Env     bool `yaml:"env"`
		Clock   bool `yaml:"clock"`
		Storage bool `yaml:"storage"`
	} `yaml:"capabilities"`
	FSRoot       string   `yaml:"fs_root"`
	EnvAllowlist []string `yaml:"env_allowlist"`
}

// DefaultHostPolicy grants nothing.
func DefaultHostPolicy() *HostPolicy {
	return &HostPolicy{FSRoot: "."}
}

// LoadHostPolicy reads a YAML policy file. Unknown keys are rejected so a
// typoed grant never silently denies.
func LoadHostPolicy(path string) (*HostPolicy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("host policy: %w", err)
	}
	return ParseHostPolicy(b)
}

// ParseHostPolicy decodes a YAML policy document.
func ParseHostPolicy(b []byte) (*HostPolicy, error) {
	p := DefaultHostPolicy()
	dec := yaml.NewDecoder(strings.NewReader(string(b)))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && err != io.EOF {
		return nil, fmt.Errorf("host policy: %w", err)
	}
	if p.FSRoot == "" {
		p.FSRoot = "."
	}
	return p, nil
}

// CapabilityReport is the preflight summary of what a run may touch.
type CapabilityReport struct {
	FS          bool     `yaml:"fs"`
	Net         bool     `yaml:"net"`
	Env         bool     `yaml:"env"`
	Clock       bool     `yaml:"clock"`
	Storage     bool     `yaml:"storage"`
	WasmImports []string `yaml:"wasm_imports"`
}

// HostContext binds a policy to runtime state: the key/value storage, the
// clock, and the HTTP client for the network capability.
type HostContext struct {
	Policy *HostPolicy

	dec    *Decoder
	client *http.Client
	now    func() time.Time

	mu      sync.Mutex
	storage map[string][]byte
}

// NewHostContext builds a dispatcher for policy (nil means deny all).
func NewHostContext(policy *HostPolicy) *HostContext {
	if policy == nil {
		policy = DefaultHostPolicy()
	}
	return &HostContext{
		Policy:  policy,
		dec:     NewDecoder(BridgeV1),
		client:  &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
		storage: map[string][]byte{},
	}
}

// Report summarizes the granted capabilities. WasmImports lists the host
// import names a wasm build of this runtime would expose for the same
// grants.
func (hc *HostContext) Report() CapabilityReport {
	c := hc.Policy.Capabilities
	r := CapabilityReport{FS: c.FS, Net: c.Net, Env: c.Env, Clock: c.Clock, Storage: c.Storage}
	if c.Storage {
		r.WasmImports = append(r.WasmImports, "host.storage_get", "host.storage_set")
	}
	if c.FS {
		r.WasmImports = append(r.WasmImports, "host.fs_read")
	}
	if c.Net {
		r.WasmImports = append(r.WasmImports, "host.net_fetch")
	}
	if c.Env {
		r.WasmImports = append(r.WasmImports, "host.env_get")
	}
	if c.Clock {
		r.WasmImports = append(r.WasmImports, "host.clock_now")
	}
	return r
}

// Dispatch handles one encoded request envelope and returns the encoded
// reply. Malformed or unauthorized requests come back as error replies;
// Dispatch itself never fails.
func (hc *HostContext) Dispatch(req []byte) []byte {
	env, cerr := hc.dec.Decode(req)
	if cerr != nil {
		return Encode(errReply(BridgeV1, cerr.Code+": "+cerr.Msg))
	}
	reply := hc.handle(env)
	return Encode(reply)
}

func (hc *HostContext) handle(env *Envelope) *Envelope {
	if denied := hc.checkCapability(env.Kind); denied != nil {
		return errReply(env.Version, denied.Error())
	}
	switch env.Kind {
	case KindStorage:
		return hc.handleStorage(env)
	case KindFilesystem:
		return hc.handleFS(env)
	case KindNetwork:
		return hc.handleNet(env)
	case KindEnv:
		return hc.handleEnv(env)
	case KindClock:
		return okReply(env.Version, []byte(hc.now().UTC().Format(time.RFC3339Nano)))
	}
	return errReply(env.Version, fmt.Sprintf("unknown envelope kind %d", env.Kind))
}

func (hc *HostContext) checkCapability(kind uint8) error {
	c := hc.Policy.Capabilities
	var name string
	var granted bool
	switch kind {
	case KindStorage:
		name, granted = "storage", c.Storage
	case KindFilesystem:
		name, granted = "fs", c.FS
	case KindNetwork:
		name, granted = "net", c.Net
	case KindEnv:
		name, granted = "env", c.Env
	case KindClock:
		name, granted = "clock", c.Clock
	default:
		return nil
	}
	if !granted {
		return &CapabilityError{Capability: name,
			Msg: fmt.Sprintf("capability '%s' is not granted by the host policy", name)}
	}
	return nil
}

func (hc *HostContext) handleStorage(env *Envelope) *Envelope {
	key, hasKey := env.Field(FieldKey)
	hc.mu.Lock()
	defer hc.mu.Unlock()
	switch env.Action {
	case ActGet:
		if !hasKey {
			return errReply(env.Version, "storage get: missing key field")
		}
		v, ok := hc.storage[string(key)]
		if !ok {
			return errReply(env.Version, fmt.Sprintf("storage: no value for key '%s'", key))
		}
		return okReply(env.Version, v)
	case ActSet:
		if !hasKey {
			return errReply(env.Version, "storage set: missing key field")
		}
		v, _ := env.Field(FieldValue)
		hc.storage[string(key)] = append([]byte(nil), v...)
		return okReply(env.Version, nil)
	case ActDelete:
		if !hasKey {
			return errReply(env.Version, "storage delete: missing key field")
		}
		delete(hc.storage, string(key))
		return okReply(env.Version, nil)
	case ActList:
		keys := make([]string, 0, len(hc.storage))
		for k := range hc.storage {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return okReply(env.Version, []byte(strings.Join(keys, "\n")))
	}
	return errReply(env.Version, fmt.Sprintf("storage: unsupported action %d", env.Action))
}

func (hc *HostContext) handleFS(env *Envelope) *Envelope {
	rel, ok := env.Field(FieldPath)
	if !ok {
		return errReply(env.Version, "filesystem: missing path field")
	}
	full, err := hc.resolvePath(string(rel))
	if err != nil {
		return errReply(env.Version, err.Error())
	}
	switch env.Action {
	case ActRead:
		b, err := os.ReadFile(full)
		if err != nil {
			return errReply(env.Version, fmt.Sprintf("filesystem: %v", err))
		}
		return okReply(env.Version, b)
	case ActExists:
		if _, err := os.Stat(full); err != nil {
			return okReply(env.Version, []byte("false"))
		}
		return okReply(env.Version, []byte("true"))
	}
	return errReply(env.Version, fmt.Sprintf("filesystem: unsupported action %d", env.Action))
}

// resolvePath confines guest paths to the policy's fs_root.
func (hc *HostContext) resolvePath(rel string) (string, error) {
	clean := filepath.Clean("/" + rel)
	full := filepath.Join(hc.Policy.FSRoot, clean)
	root, err := filepath.Abs(hc.Policy.FSRoot)
	if err != nil {
		return "", fmt.Errorf("filesystem: %v", err)
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("filesystem: %v", err)
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("filesystem: path '%s' escapes the sandbox root", rel)
	}
	return abs, nil
}

func (hc *HostContext) handleNet(env *Envelope) *Envelope {
	url, ok := env.Field(FieldPath)
	if !ok {
		return errReply(env.Version, "network: missing path field")
	}
	resp, err := hc.client.Get(string(url))
	if err != nil {
		return errReply(env.Version, fmt.Sprintf("network: %v", err))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errReply(env.Version, fmt.Sprintf("network: %v", err))
	}
	return okReply(env.Version, body)
}

func (hc *HostContext) handleEnv(env *Envelope) *Envelope {
	name, ok := env.Field(FieldName)
	if !ok {
		return errReply(env.Version, "env: missing name field")
	}
	allowed := false
	for _, n := range hc.Policy.EnvAllowlist {
		if n == string(name) {
			allowed = true
			break
		}
	}
	if !allowed {
		return errReply(env.Version, fmt.Sprintf("env: variable '%s' is not in the allowlist", name))
	}
	return okReply(env.Version, []byte(os.Getenv(string(name))))
}

/* ===========================
   The __bridge native
   =========================== */

// bridgeFieldIDs maps guest payload keys to wire field ids.
var bridgeFieldIDs = map[string]uint8{
	"key":   FieldKey,
	"value": FieldValue,
	"path":  FieldPath,
	"name":  FieldName,
}

func init() {
	builtins.MustRegister(&Native{Name: "__bridge", MinArity: 3, MaxArity: 3,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) {
			if in.Host == nil {
				return 0, &NativeError{Op: "__bridge", Code: NativeFailed,
					Msg: "__bridge: no host context attached to this run"}
			}
			if in.A.Tag(args[0]) != TagStr || in.A.Tag(args[1]) != TagStr {
				return 0, badArg("__bridge", "kind and action strings", in.A.Tag(args[0]))
			}
			kind, ok := kindNames[in.A.AsStr(args[0])]
			if !ok {
				return 0, &NativeError{Op: "__bridge", Code: NativeBadArg,
					Msg: "__bridge: unknown kind '" + in.A.AsStr(args[0]) + "'"}
			}
			action, ok := actionNames[in.A.AsStr(args[1])]
			if !ok {
				return 0, &NativeError{Op: "__bridge", Code: NativeBadArg,
					Msg: "__bridge: unknown action '" + in.A.AsStr(args[1]) + "'"}
			}
			env := &Envelope{Version: BridgeV1, Kind: kind, Action: action}
			if in.A.Tag(args[2]) == TagObject {
				rec := in.A.AsRecord(args[2])
				for _, k := range rec.Keys {
					id, ok := bridgeFieldIDs[k]
					if !ok {
						return 0, &NativeError{Op: "__bridge", Code: NativeBadArg,
							Msg: "__bridge: unknown payload field '" + k + "'"}
					}
					env.Add(id, []byte(in.display(rec.Entries[k])))
				}
			} else if in.A.Tag(args[2]) != TagNone {
				return 0, badArg("__bridge", "a payload object", in.A.Tag(args[2]))
			}

			replyBytes := in.Host.Dispatch(Encode(env))
			reply, cerr := in.Host.dec.Decode(replyBytes)
			if cerr != nil {
				return 0, &NativeError{Op: "__bridge", Code: NativeFailed,
					Msg: "__bridge: bad reply envelope: " + cerr.Msg}
			}
			if reply.Action == ActError {
				msg, _ := reply.Field(FieldError)
				return in.A.Enum("Result", "Err", []string{"error"},
					[]Handle{in.A.Str(string(msg))}), nil
			}
			data, _ := reply.Field(FieldData)
			return in.A.Enum("Result", "Ok", []string{"value"},
				[]Handle{in.A.Str(string(data))}), nil
		}})
}
