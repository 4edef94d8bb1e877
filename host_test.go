package deka

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func grantAll() *HostPolicy {
	p := DefaultHostPolicy()
	p.Capabilities.FS = true
	p.Capabilities.Net = true
	p.Capabilities.Env = true
	p.Capabilities.Clock = true
	p.Capabilities.Storage = true
	return p
}

func dispatch(t *testing.T, hc *HostContext, kind, action uint8, fields ...EnvField) *Envelope {
	t.Helper()
	req := &Envelope{Version: BridgeV1, Kind: kind, Action: action}
	for _, f := range fields {
		req.Add(f.ID, f.Value)
	}
	reply, cerr := NewDecoder(BridgeV1).Decode(hc.Dispatch(Encode(req)))
	if cerr != nil {
		t.Fatalf("reply did not decode: %v", cerr)
	}
	return reply
}

func Test_Host_policy_parse(t *testing.T) {
	p, err := ParseHostPolicy([]byte(`
capabilities:
  storage: true
  clock: true
fs_root: /srv/sandbox
env_allowlist: [HOME, LANG]
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !p.Capabilities.Storage || !p.Capabilities.Clock || p.Capabilities.Net {
		t.Fatalf("grants wrong: %+v", p.Capabilities)
	}
	if p.FSRoot != "/srv/sandbox" || len(p.EnvAllowlist) != 2 {
		t.Fatalf("policy fields wrong: %+v", p)
	}
}

func Test_Host_policy_rejects_unknown_keys(t *testing.T) {
	_, err := ParseHostPolicy([]byte("capabilties:\n  storage: true\n"))
	if err == nil {
		t.Fatal("typoed key should fail parsing")
	}
}

func Test_Host_policy_empty_denies_all(t *testing.T) {
	p, err := ParseHostPolicy(nil)
	if err != nil {
		t.Fatalf("empty policy should parse: %v", err)
	}
	if p.Capabilities.Storage || p.Capabilities.FS {
		t.Fatal("empty policy should grant nothing")
	}
}

func Test_Host_report_wasm_imports(t *testing.T) {
	r := NewHostContext(grantAll()).Report()
	if !r.Storage || !r.FS || !r.Net || !r.Env || !r.Clock {
		t.Fatalf("report grants wrong: %+v", r)
	}
	want := []string{"host.storage_get", "host.storage_set", "host.fs_read",
		"host.net_fetch", "host.env_get", "host.clock_now"}
	if len(r.WasmImports) != len(want) {
		t.Fatalf("imports = %v, want %v", r.WasmImports, want)
	}
	for i := range want {
		if r.WasmImports[i] != want[i] {
			t.Fatalf("imports = %v, want %v", r.WasmImports, want)
		}
	}

	denied := NewHostContext(nil).Report()
	if len(denied.WasmImports) != 0 {
		t.Fatalf("deny-all report should list nothing, got %v", denied.WasmImports)
	}
}

func Test_Host_denied_capability(t *testing.T) {
	hc := NewHostContext(nil)
	reply := dispatch(t, hc, KindStorage, ActGet, EnvField{ID: FieldKey, Value: []byte("k")})
	if reply.Action != ActError {
		t.Fatal("deny-all policy should refuse storage")
	}
	msg, _ := reply.Field(FieldError)
	wantContains(t, string(msg), "capability 'storage' is not granted")
}

func Test_Host_storage_roundtrip(t *testing.T) {
	hc := NewHostContext(grantAll())

	reply := dispatch(t, hc, KindStorage, ActSet,
		EnvField{ID: FieldKey, Value: []byte("color")},
		EnvField{ID: FieldValue, Value: []byte("teal")})
	if reply.Action != ActOK {
		t.Fatalf("set failed: %+v", reply)
	}

	reply = dispatch(t, hc, KindStorage, ActGet, EnvField{ID: FieldKey, Value: []byte("color")})
	data, _ := reply.Field(FieldData)
	if reply.Action != ActOK || string(data) != "teal" {
		t.Fatalf("get = %+v %q", reply, data)
	}

	reply = dispatch(t, hc, KindStorage, ActGet, EnvField{ID: FieldKey, Value: []byte("absent")})
	if reply.Action != ActError {
		t.Fatal("missing key should error")
	}

	dispatch(t, hc, KindStorage, ActSet, EnvField{ID: FieldKey, Value: []byte("alpha")})
	reply = dispatch(t, hc, KindStorage, ActList)
	data, _ = reply.Field(FieldData)
	if string(data) != "alpha\ncolor" {
		t.Fatalf("list = %q, want sorted keys", data)
	}

	dispatch(t, hc, KindStorage, ActDelete, EnvField{ID: FieldKey, Value: []byte("color")})
	reply = dispatch(t, hc, KindStorage, ActGet, EnvField{ID: FieldKey, Value: []byte("color")})
	if reply.Action != ActError {
		t.Fatal("deleted key should be gone")
	}
}

func Test_Host_fs_read_inside_root(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "note.txt"), []byte("inside"), 0o644); err != nil {
		t.Fatal(err)
	}
	policy := grantAll()
	policy.FSRoot = root
	hc := NewHostContext(policy)

	reply := dispatch(t, hc, KindFilesystem, ActRead, EnvField{ID: FieldPath, Value: []byte("note.txt")})
	data, _ := reply.Field(FieldData)
	if reply.Action != ActOK || string(data) != "inside" {
		t.Fatalf("read = %+v %q", reply, data)
	}

	reply = dispatch(t, hc, KindFilesystem, ActExists, EnvField{ID: FieldPath, Value: []byte("note.txt")})
	data, _ = reply.Field(FieldData)
	if string(data) != "true" {
		t.Fatalf("exists = %q", data)
	}
}

func Test_Host_fs_traversal_stays_sandboxed(t *testing.T) {
	outer := t.TempDir()
	root := filepath.Join(outer, "root")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	// A file the guest must not be able to reach.
	if err := os.WriteFile(filepath.Join(outer, "secret.txt"), []byte("hidden"), 0o644); err != nil {
		t.Fatal(err)
	}
	policy := grantAll()
	policy.FSRoot = root
	hc := NewHostContext(policy)

	reply := dispatch(t, hc, KindFilesystem, ActRead,
		EnvField{ID: FieldPath, Value: []byte("../secret.txt")})
	if reply.Action == ActOK {
		data, _ := reply.Field(FieldData)
		t.Fatalf("traversal escaped the sandbox: %q", data)
	}
}

func Test_Host_env_allowlist(t *testing.T) {
	t.Setenv("DEKA_TEST_VAR", "42")
	policy := grantAll()
	policy.EnvAllowlist = []string{"DEKA_TEST_VAR"}
	hc := NewHostContext(policy)

	reply := dispatch(t, hc, KindEnv, ActGet, EnvField{ID: FieldName, Value: []byte("DEKA_TEST_VAR")})
	data, _ := reply.Field(FieldData)
	if reply.Action != ActOK || string(data) != "42" {
		t.Fatalf("env get = %+v %q", reply, data)
	}

	reply = dispatch(t, hc, KindEnv, ActGet, EnvField{ID: FieldName, Value: []byte("PATH")})
	if reply.Action != ActError {
		t.Fatal("names outside the allowlist should be refused")
	}
	msg, _ := reply.Field(FieldError)
	wantContains(t, string(msg), "not in the allowlist")
}

func Test_Host_clock(t *testing.T) {
	hc := NewHostContext(grantAll())
	reply := dispatch(t, hc, KindClock, ActNow)
	data, _ := reply.Field(FieldData)
	if reply.Action != ActOK {
		t.Fatalf("clock failed: %+v", reply)
	}
	if _, err := time.Parse(time.RFC3339Nano, string(data)); err != nil {
		t.Fatalf("clock payload %q is not RFC3339: %v", data, err)
	}
}

func Test_Host_dispatch_malformed_request(t *testing.T) {
	hc := NewHostContext(grantAll())
	reply, cerr := NewDecoder(BridgeV1).Decode(hc.Dispatch([]byte{0x00, 0x01, 0xFF}))
	if cerr != nil {
		t.Fatalf("error reply did not decode: %v", cerr)
	}
	if reply.Action != ActError {
		t.Fatal("malformed request should come back as an error reply")
	}
	msg, _ := reply.Field(FieldError)
	if !strings.Contains(string(msg), CodecMalformed) {
		t.Fatalf("error should carry the codec code, got %q", msg)
	}
}
