package refs

import (
	"strings"
	"testing"
)

// fakeBridge records the paths it is asked to convert.
func fakeBridge() LoadableBridge {
	return BridgeFunc(func(p string) string { return "mdpress://local" + strings.ReplaceAll(p, `\`, "/") })
}

// ---------------------------------------------------------------------------
// TestClassify - Reference Kinds
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ref       string
		assetsDir string
		want      Kind
	}{
		{"http", "http://example.com/a.png", "assets", KindRemote},
		{"https uppercase", "HTTPS://example.com/a.png", "assets", KindRemote},
		{"data uri", "data:image/png;base64,AAAA", "assets", KindRemote},
		{"protocol relative", "//cdn.example.com/a.png", "assets", KindRemote},
		{"file locator", "file:///docs/assets/a.png", "assets", KindInternal},
		{"internal scheme", "mdpress://local/docs/a.png", "assets", KindInternal},
		{"assets relative", "assets/a.png", "assets", KindAssetsRelative},
		{"dot assets relative", "./assets/a.png", "assets", KindAssetsRelative},
		{"trailing slash on dir", "assets/a.png", "assets/", KindAssetsRelative},
		{"trailing backslash on dir", "assets/a.png", `assets\`, KindAssetsRelative},
		{"surrounding whitespace", "  assets/a.png  ", "assets", KindAssetsRelative},
		{"parent relative", "../img/a.png", "assets", KindOtherRelative},
		{"root relative", "/img/a.png", "assets", KindOtherRelative},
		{"bare name", "a.png", "assets", KindOtherRelative},
		{"dir name prefix only", "assets-old/a.png", "assets", KindOtherRelative},
		{"dir itself", "assets", "assets", KindOtherRelative},
		{"empty assets dir", "assets/a.png", "", KindOtherRelative},
		{"empty ref", "", "assets", KindOtherRelative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.ref, tt.assetsDir)
			if got != tt.want {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.ref, tt.assetsDir, got, tt.want)
			}
		})
	}
}

func TestKind_Absolute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want bool
	}{
		{KindRemote, true},
		{KindInternal, true},
		{KindAssetsRelative, false},
		{KindOtherRelative, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			if got := tt.kind.Absolute(); got != tt.want {
				t.Errorf("%v.Absolute() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestToLoadable - Assets-Relative Rewriting
// ---------------------------------------------------------------------------

func TestToLoadable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		html    string
		baseDir string
		want    string
	}{
		{
			name:    "assets relative rewritten",
			html:    `<img src="assets/a.png">`,
			baseDir: "/docs",
			want:    `<img src="mdpress://local/docs/assets/a.png">`,
		},
		{
			name:    "leading dot slash stripped",
			html:    `<img src="./assets/a.png">`,
			baseDir: "/docs/",
			want:    `<img src="mdpress://local/docs/assets/a.png">`,
		},
		{
			name:    "windows separator kept",
			html:    `<img src="assets/sub/a.png">`,
			baseDir: `C:\docs`,
			want:    `<img src="mdpress://localC:/docs/assets/sub/a.png">`,
		},
		{
			name:    "single quotes and uppercase tag",
			html:    `<IMG alt='x' SRC='assets/a.png'>`,
			baseDir: "/docs",
			want:    `<IMG alt='x' SRC='mdpress://local/docs/assets/a.png'>`,
		},
		{
			name:    "other relative untouched",
			html:    `<img src="../img/a.png">`,
			baseDir: "/docs",
			want:    `<img src="../img/a.png">`,
		},
		{
			name:    "remote untouched",
			html:    `<img src="https://example.com/assets/a.png">`,
			baseDir: "/docs",
			want:    `<img src="https://example.com/assets/a.png">`,
		},
		{
			name:    "data-src attribute ignored",
			html:    `<img data-src="assets/a.png" src="x.png">`,
			baseDir: "/docs",
			want:    `<img data-src="assets/a.png" src="x.png">`,
		},
		{
			name:    "empty src untouched",
			html:    `<img src="">`,
			baseDir: "/docs",
			want:    `<img src="">`,
		},
		{
			name:    "no base dir is a no-op",
			html:    `<img src="assets/a.png">`,
			baseDir: "",
			want:    `<img src="assets/a.png">`,
		},
		{
			name:    "multiple images",
			html:    `<p><img src="assets/a.png"> and <img src="b.png"> and <img src="assets/c.png"></p>`,
			baseDir: "/d",
			want:    `<p><img src="mdpress://local/d/assets/a.png"> and <img src="b.png"> and <img src="mdpress://local/d/assets/c.png"></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ToLoadable(tt.html, tt.baseDir, "assets", fakeBridge())
			if got != tt.want {
				t.Errorf("ToLoadable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToLoadable_WindowsJoinPassedToBridge(t *testing.T) {
	t.Parallel()

	var seen string
	bridge := BridgeFunc(func(p string) string {
		seen = p
		return "x"
	})

	ToLoadable(`<img src="./assets/sub/a.png">`, `C:\docs\`, "assets", bridge)

	if want := `C:\docs\assets\sub\a.png`; seen != want {
		t.Errorf("bridge received %q, want %q", seen, want)
	}
}

func TestToLoadable_DecodesAttribute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantPath string
		wantSrc  string
	}{
		{"non ascii", "assets/%E5%9B%BE.png", "/doc/assets/图.png", "file:///doc/assets/%E5%9B%BE.png"},
		{"space", "assets/my%20img.png", "/doc/assets/my img.png", "file:///doc/assets/my%20img.png"},
		{"entity", "assets/a&amp;b.png", "/doc/assets/a&b.png", "file:///doc/assets/a&amp;b.png"},
		{"raw non ascii", "assets/图.png", "/doc/assets/图.png", "file:///doc/assets/%E5%9B%BE.png"},
		{"invalid escape kept", "assets/100%.png", "/doc/assets/100%.png", "file:///doc/assets/100%25.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen string
			bridge := BridgeFunc(func(p string) string {
				seen = p
				return FileURLBridge{}.Loadable(p)
			})

			got := ToLoadable(`<img src="`+tt.src+`">`, "/doc", "assets", bridge)
			if seen != tt.wantPath {
				t.Errorf("bridge received %q, want %q", seen, tt.wantPath)
			}
			if want := `<img src="` + tt.wantSrc + `">`; got != want {
				t.Errorf("ToLoadable() = %q, want %q", got, want)
			}
		})
	}
}

func TestToLoadable_NilBridge(t *testing.T) {
	t.Parallel()

	in := `<img src="assets/a.png">`
	if got := ToLoadable(in, "/docs", "assets", nil); got != in {
		t.Errorf("ToLoadable(nil bridge) = %q, want unchanged", got)
	}
}

// ---------------------------------------------------------------------------
// TestApplyPrefix - CDN Prefixing
// ---------------------------------------------------------------------------

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		html   string
		prefix string
		want   string
	}{
		{
			name:   "parent relative gets slash inserted",
			html:   `<img src="../img/a.png">`,
			prefix: "https://cdn.example.com/",
			want:   `<img src="https://cdn.example.com/../img/a.png">`,
		},
		{
			name:   "root relative appended directly",
			html:   `<img src="/img/a.png">`,
			prefix: "https://cdn.example.com///",
			want:   `<img src="https://cdn.example.com/img/a.png">`,
		},
		{
			name:   "protocol relative prefix",
			html:   `<img src="a.png">`,
			prefix: "//cdn.example.com",
			want:   `<img src="//cdn.example.com/a.png">`,
		},
		{
			name:   "assets relative untouched",
			html:   `<img src="assets/a.png">`,
			prefix: "https://cdn.example.com",
			want:   `<img src="assets/a.png">`,
		},
		{
			name:   "internal locator untouched",
			html:   `<img src="file:///docs/assets/a.png">`,
			prefix: "https://cdn.example.com",
			want:   `<img src="file:///docs/assets/a.png">`,
		},
		{
			name:   "blank prefix is a no-op",
			html:   `<img src="a.png">`,
			prefix: "   ",
			want:   `<img src="a.png">`,
		},
		{
			name:   "quote in prefix escaped",
			html:   `<img src="a.png">`,
			prefix: `https://cdn.example.com/x"y`,
			want:   `<img src="https://cdn.example.com/x&quot;y/a.png">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ApplyPrefix(tt.html, tt.prefix, "assets")
			if got != tt.want {
				t.Errorf("ApplyPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRewrite_Properties - Idempotence and Composition
// ---------------------------------------------------------------------------

func TestRewrite_RemoteIsNoOp(t *testing.T) {
	t.Parallel()

	remotes := []string{
		"http://example.com/a.png",
		"https://example.com/assets/a.png",
		"data:image/png;base64,iVBORw0KGgo=",
		"//cdn.example.com/a.png",
	}

	for _, ref := range remotes {
		t.Run(ref, func(t *testing.T) {
			t.Parallel()

			in := `<img src="` + ref + `">`
			if got := ToLoadable(in, "/docs", "assets", fakeBridge()); got != in {
				t.Errorf("ToLoadable() = %q, want unchanged", got)
			}
			if got := ApplyPrefix(in, "https://cdn.example.com", "assets"); got != in {
				t.Errorf("ApplyPrefix() = %q, want unchanged", got)
			}
		})
	}
}

func TestApplyPrefix_Idempotent(t *testing.T) {
	t.Parallel()

	in := `<p><img src="a.png"><img src='/b/c.png'><img src="../d.png"><img src="assets/e.png"></p>`
	prefix := "https://cdn.example.com/"

	once := ApplyPrefix(in, prefix, "assets")
	twice := ApplyPrefix(once, prefix, "assets")

	if once != twice {
		t.Errorf("ApplyPrefix not idempotent:\n once = %q\ntwice = %q", once, twice)
	}
}

func TestToLoadable_ThenApplyPrefix(t *testing.T) {
	t.Parallel()

	in := `<img src="assets/a.png">`
	loadable := ToLoadable(in, "/docs", "assets", FileURLBridge{})

	want := `<img src="file:///docs/assets/a.png">`
	if loadable != want {
		t.Fatalf("ToLoadable() = %q, want %q", loadable, want)
	}

	if got := ApplyPrefix(loadable, "https://cdn.example.com", "assets"); got != want {
		t.Errorf("ApplyPrefix() after ToLoadable = %q, want %q", got, want)
	}
	if got := ToLoadable(loadable, "/docs", "assets", FileURLBridge{}); got != want {
		t.Errorf("second ToLoadable() = %q, want %q", got, want)
	}
}

func TestRewrite_InputNotMutated(t *testing.T) {
	t.Parallel()

	in := `<img src="a.png">`
	_ = ApplyPrefix(in, "https://cdn.example.com", "assets")
	if in != `<img src="a.png">` {
		t.Error("input was modified")
	}
}

// ---------------------------------------------------------------------------
// TestBridges
// ---------------------------------------------------------------------------

func TestFileURLBridge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"unix path", "/docs/assets/a.png", "file:///docs/assets/a.png"},
		{"windows path", `C:\docs\assets\a.png`, "file:///C:/docs/assets/a.png"},
		{"space escaped", "/my docs/a.png", "file:///my%20docs/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := (FileURLBridge{}).Loadable(tt.path); got != tt.want {
				t.Errorf("Loadable(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPBridge(t *testing.T) {
	t.Parallel()

	b := HTTPBridge{BaseURL: "http://127.0.0.1:8765/local/"}
	got := b.Loadable("/docs/assets/a b.png")
	want := "http://127.0.0.1:8765/local?path=%2Fdocs%2Fassets%2Fa+b.png"
	if got != want {
		t.Errorf("Loadable() = %q, want %q", got, want)
	}
	if Classify(got, "assets") != KindRemote {
		t.Errorf("HTTP locator should classify as remote")
	}
}
