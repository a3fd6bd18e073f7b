package behavior

import (
	"path"
	"regexp"
	"strings"

	"github.com/panbanda/gdlens/pkg/analyzer/calls"
	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
)

var (
	nodePathRe    = regexp.MustCompile(`\$(?:"[^"]*"|'[^']*'|[A-Za-z_][A-Za-z0-9_/]*)`)
	uniqueNameRe  = regexp.MustCompile(`%[A-Za-z_][A-Za-z0-9_]*`)
	getNodeRe     = regexp.MustCompile(`get_node(?:_or_null)?\(\s*(?:"[^"]*"|'[^']*'|\^"[^"]*")\s*\)`)
	treeMutateRe  = regexp.MustCompile(`\b(add_child|remove_child|queue_free|reparent|add_sibling|move_child|replace_by|change_scene_to_file|change_scene_to_packed|reload_current_scene)\s*\(`)
	instantiateRe = regexp.MustCompile(`\.instantiate\s*\(\s*\)`)
)

// sceneLoaders are the calls whose path argument may name a scene file.
var sceneLoaders = []struct {
	name     string
	allowDot bool
}{
	{"preload", false},
	{"load", false},
	{"ResourceLoader.load", true},
	{"change_scene_to_file", true},
}

var sceneExtensions = map[string]bool{".tscn": true, ".scn": true, ".escn": true}

const lambdaHandler = "<lambda>"

// Interactions scans every method body of ps for scene tree access.
func (a *Analyzer) Interactions(ps *parser.ParsedScript) models.SceneInteractions {
	si := models.NewSceneInteractions()
	for i, m := range ps.Decl.Methods {
		if i >= len(ps.Bodies) {
			break
		}
		for _, line := range ps.Bodies[i].Lines {
			scanInteractions(&si, m.Name, line)
		}
	}
	for _, e := range ps.Decl.SignalEmissions {
		si.UpwardCommunication = models.AppendUnique(si.UpwardCommunication, e.Signal)
	}
	return si
}

func scanInteractions(si *models.SceneInteractions, method string, line parser.BodyLine) {
	code := lex.StripComment(line.Text)
	if strings.TrimSpace(code) == "" {
		return
	}
	masked := lex.MaskStrings(code)

	si.NodeQueries = models.AppendUnique(si.NodeQueries, nodeQueries(code, masked)...)

	for _, loc := range treeMutateRe.FindAllStringSubmatchIndex(masked, -1) {
		name := code[loc[2]:loc[3]]
		si.TreeManipulation = models.AppendUnique(si.TreeManipulation, withContext(code[:loc[0]], name))
	}

	for _, l := range sceneLoaders {
		for _, arg := range lex.QuotedArgs(code, l.name, l.allowDot) {
			if sceneExtensions[strings.ToLower(path.Ext(arg))] {
				si.SceneLoading = models.AppendUnique(si.SceneLoading, arg)
			}
		}
	}
	for _, loc := range instantiateRe.FindAllStringIndex(masked, -1) {
		token := trailingExpr(lex.LastToken(code[:loc[0]]))
		si.SceneLoading = models.AppendUnique(si.SceneLoading, token+".instantiate()")
	}

	for _, c := range calls.Extract(line.Text, line.Number) {
		if isNodeQuery(c.Receiver) {
			si.DownwardCommunication = models.AppendUnique(si.DownwardCommunication, c.Receiver+"."+c.Method)
		}
		if c.Method == "connect" {
			if conn, ok := signalConnection(c, method); ok {
				si.SignalConnections = append(si.SignalConnections, conn)
			}
		}
	}
}

// nodeQueries returns $Path, %Unique and get_node("...") references that
// sit outside string literals.
func nodeQueries(code, masked string) []string {
	var out []string
	for _, loc := range nodePathRe.FindAllStringIndex(code, -1) {
		if masked[loc[0]] == '$' {
			out = append(out, code[loc[0]:loc[1]])
		}
	}
	for _, loc := range uniqueNameRe.FindAllStringIndex(masked, -1) {
		if loc[0] > 0 {
			prev := masked[loc[0]-1]
			if lex.IsIdentByte(prev) || prev == ')' || prev == ']' {
				continue
			}
		}
		out = append(out, code[loc[0]:loc[1]])
	}
	for _, loc := range getNodeRe.FindAllStringIndex(code, -1) {
		if masked[loc[0]] == 'g' && (loc[0] == 0 || !lex.IsIdentByte(code[loc[0]-1])) {
			out = append(out, code[loc[0]:loc[1]])
		}
	}
	return out
}

// withContext prefixes name with the receiver written right before it,
// taken as the last whitespace-delimited token of prefix.
func withContext(prefix, name string) string {
	token := trailingExpr(lex.LastToken(prefix))
	if !strings.HasSuffix(token, ".") {
		return name
	}
	return token + name
}

// trailingExpr drops what precedes the last expression of token, cutting
// at an unbalanced opening bracket, '=' or ','.
func trailingExpr(token string) string {
	depth := 0
	for i := len(token) - 1; i >= 0; i-- {
		switch token[i] {
		case ')', ']':
			depth++
		case '(', '[':
			if depth == 0 {
				return token[i+1:]
			}
			depth--
		case '=', ',':
			if depth == 0 {
				return token[i+1:]
			}
		}
	}
	return token
}

// isNodeQuery reports whether receiver is exactly one node query, so that
// $A.b() counts and $A.sig.connect() does not.
func isNodeQuery(receiver string) bool {
	if receiver == "" {
		return false
	}
	for _, re := range []*regexp.Regexp{nodePathRe, uniqueNameRe, getNodeRe} {
		if re.FindString(receiver) == receiver {
			return true
		}
	}
	return false
}

// signalConnection reads both connect forms:
// source.signal.connect(handler) and source.connect("signal", target, "method").
func signalConnection(c calls.Call, method string) (models.SignalConnection, bool) {
	args := splitArgs(c.Args)
	conn := models.SignalConnection{Method: method, Line: c.Line}
	receiver := strings.TrimPrefix(c.Receiver, "self.")

	if len(args) > 0 && isQuoted(args[0]) {
		conn.Signal = unquoteName(args[0])
		conn.Source = receiver
		if conn.Source == "" || conn.Source == calls.SelfReceiver {
			conn.Source = models.SelfObject
		}
		switch {
		case len(args) >= 3 && isQuoted(args[2]):
			conn.Handler = unquoteName(args[2])
		case len(args) >= 2:
			conn.Handler = handlerName(args[1])
		}
		return conn, conn.Signal != ""
	}

	if receiver == "" || receiver == calls.SelfReceiver {
		return conn, false
	}
	if idx := strings.LastIndexByte(receiver, '.'); idx >= 0 {
		conn.Source = receiver[:idx]
		conn.Signal = receiver[idx+1:]
	} else {
		conn.Source = models.SelfObject
		conn.Signal = receiver
	}
	if len(args) > 0 {
		conn.Handler = handlerName(args[0])
	}
	return conn, true
}

// handlerName reduces a callable expression to the method it targets.
func handlerName(expr string) string {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "func") {
		return lambdaHandler
	}
	if callee, args, ok := lex.CallForm(expr); ok && callee == "Callable" {
		parts := splitArgs(args)
		if len(parts) == 2 {
			return unquoteName(parts[1])
		}
	}
	expr = strings.TrimPrefix(expr, "self.")
	if idx := strings.Index(expr, ".bind("); idx >= 0 {
		expr = expr[:idx]
	}
	if idx := strings.Index(expr, ".call_deferred"); idx >= 0 {
		expr = expr[:idx]
	}
	return expr
}

// unquoteName unquotes a String or StringName literal.
func unquoteName(s string) string {
	return lex.Unquote(strings.TrimPrefix(strings.TrimSpace(s), "&"))
}

func isQuoted(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "&")
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]
}

// splitArgs splits an argument list at top-level commas.
func splitArgs(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	masked := lex.MaskStrings(args)
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(args[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(args[start:]))
}
