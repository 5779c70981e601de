package codebase

import (
	"bytes"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/bep/debounce"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/xjs/project"
	"github.com/dhamidi/xjs/xjs/parser"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "xjs"

// DiagnosticsDelay is how long the server waits after the last change to
// a document before publishing its diagnostics.
const DiagnosticsDelay = 200 * time.Millisecond

var lsLog = commonlog.GetLogger("xjs.lsp")

type LSPServer struct {
	codebase *Codebase
	handler  protocol.Handler
	server   *server.Server
	version  string
	delay    time.Duration

	watcher *FileWatcher

	mu        sync.Mutex
	debounced map[string]func(func())
	open      map[string]bool
}

func NewLSPServer(version string) *LSPServer {
	ls := &LSPServer{
		version:   version,
		delay:     DiagnosticsDelay,
		debounced: make(map[string]func(func())),
		open:      make(map[string]bool),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentFormatting: ls.textDocumentFormatting,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	proj, err := project.LoadFrom(rootDir)
	if err != nil {
		lsLog.Warningf("%s, using defaults", err)
		proj = &project.Project{RootDir: rootDir, Config: project.DefaultConfig()}
	}
	ls.codebase = New(proj)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.codebase.ScanAll(); err != nil {
		lsLog.Errorf("scan %s: %s", ls.codebase.RootDir(), err)
	}

	watcher, err := NewFileWatcher(ls.codebase, DefaultWatchDelay)
	if err != nil {
		lsLog.Errorf("watch %s: %s", ls.codebase.RootDir(), err)
		return nil
	}
	watcher.OnChange = func(paths []string) {
		for _, path := range paths {
			if !ls.isOpen(path) {
				ls.publishDiagnostics(ctx, pathToURI(path), path)
			}
		}
	}
	if err := watcher.Start(); err != nil {
		lsLog.Errorf("watch %s: %s", ls.codebase.RootDir(), err)
		return nil
	}
	ls.watcher = watcher
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.watcher != nil {
		err := ls.watcher.Stop()
		ls.watcher = nil
		return err
	}
	return nil
}

func (ls *LSPServer) setOpen(path string, open bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if open {
		ls.open[path] = true
	} else {
		delete(ls.open, path)
	}
}

func (ls *LSPServer) isOpen(path string) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.open[path]
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.setOpen(path, true)
	ls.codebase.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.codebase.UpdateFile(path, []byte(textChange.Text))
			ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.setOpen(path, false)
	if !ls.codebase.Project().Matches(path) {
		ls.codebase.RemoveFile(path)
	} else if err := ls.codebase.ScanFile(path); err != nil {
		ls.codebase.RemoveFile(path)
	}
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.codebase.UpdateFile(path, []byte(*params.Text))
	} else if err := ls.codebase.ScanFile(path); err != nil {
		lsLog.Warningf("scan %s: %s", path, err)
		return nil
	}
	ls.publishDiagnostics(ctx, params.TextDocument.URI, path)
	return nil
}

// textDocumentFormatting replaces the whole document with its canonical
// form. Documents that do not parse are left alone.
func (ls *LSPServer) textDocumentFormatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	file := ls.codebase.GetFile(path)
	if file == nil || file.ParseErr != nil {
		return nil, nil
	}

	formatted, err := ls.codebase.Format(path)
	if err != nil {
		lsLog.Warningf("format %s: %s", path, err)
		return nil, nil
	}
	if string(formatted) == string(file.Content) {
		return []protocol.TextEdit{}, nil
	}

	return []protocol.TextEdit{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   endPosition(file.Content),
		},
		NewText: string(formatted),
	}}, nil
}

// publishDiagnostics sends the diagnostics of path once the document has
// been quiet for ls.delay.
func (ls *LSPServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, path string) {
	ls.mu.Lock()
	debounced, ok := ls.debounced[uri]
	if !ok {
		debounced = debounce.New(ls.delay)
		ls.debounced[uri] = debounced
	}
	ls.mu.Unlock()

	debounced(func() {
		var content []byte
		if file := ls.codebase.GetFile(path); file != nil {
			content = file.Content
		}
		diagnostics := toProtocolDiagnostics(ls.codebase.Diagnostics(path), content)
		lsLog.Debugf("publishing %d diagnostics for %s", len(diagnostics), path)
		ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diagnostics,
		})
	})
}

func toProtocolDiagnostics(diags []Diagnostic, content []byte) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(diags))
	severity := protocol.DiagnosticSeverityError
	source := lsName
	for _, d := range diags {
		start := protocol.Position{
			Line:      protocol.UInteger(max(d.Pos.Line-1, 0)),
			Character: utf16Column(content, d.Pos),
		}
		code := protocol.IntegerOrString{Value: d.Kind.String()}
		result = append(result, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: start},
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return result
}

// utf16Column is the column of pos in UTF-16 code units, counted from
// the start of its line in content. Positions outside content keep their
// code point column.
func utf16Column(content []byte, pos parser.Position) protocol.UInteger {
	if pos.Offset < 0 || pos.Offset > len(content) {
		return protocol.UInteger(max(pos.Column-1, 0))
	}
	before := content[:pos.Offset]
	line := before[bytes.LastIndexByte(before, '\n')+1:]
	return protocol.UInteger(len(utf16.Encode([]rune(string(line)))))
}

// endPosition is the position just past the last character of content,
// with characters counted in UTF-16 code units.
func endPosition(content []byte) protocol.Position {
	text := string(content)
	line := strings.Count(text, "\n")
	last := text[strings.LastIndex(text, "\n")+1:]
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(len(utf16.Encode([]rune(last)))),
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) protocol.DocumentUri {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
