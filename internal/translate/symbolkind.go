package translate

import (
	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// SymbolKindFromAnalyzer maps the analyzer's string kind (as used by
// navtree/navto/completionInfo entries) to an LSP SymbolKind. Unknown
// kinds fall back to Variable rather than failing the request.
func SymbolKindFromAnalyzer(kind string) lsproto.SymbolKind {
	switch kind {
	case "module":
		return lsproto.SymbolKindModule
	case "namespace":
		return lsproto.SymbolKindNamespace
	case "class", "local class":
		return lsproto.SymbolKindClass
	case "interface":
		return lsproto.SymbolKindInterface
	case "enum", "const enum":
		return lsproto.SymbolKindEnum
	case "method", "constructor signature":
		return lsproto.SymbolKindMethod
	case "constructor":
		return lsproto.SymbolKindConstructor
	case "property", "getter", "setter":
		return lsproto.SymbolKindProperty
	case "field":
		return lsproto.SymbolKindField
	case "function", "local function":
		return lsproto.SymbolKindFunction
	case "var", "local var", "let", "parameter":
		return lsproto.SymbolKindVariable
	case "const":
		return lsproto.SymbolKindConstant
	case "type parameter":
		return lsproto.SymbolKindTypeParameter
	case "alias", "type":
		return lsproto.SymbolKindInterface
	case "script", "external module name":
		return lsproto.SymbolKindFile
	default:
		return lsproto.SymbolKindVariable
	}
}

// CompletionItemKindFromAnalyzer maps the analyzer's string kind (as used
// by completionInfo entries) to an LSP CompletionItemKind.
func CompletionItemKindFromAnalyzer(kind string) lsproto.CompletionItemKind {
	switch kind {
	case "method", "constructor signature":
		return lsproto.CompletionItemKindMethod
	case "constructor":
		return lsproto.CompletionItemKindConstructor
	case "function", "local function":
		return lsproto.CompletionItemKindFunction
	case "property", "getter", "setter", "field":
		return lsproto.CompletionItemKindField
	case "var", "local var", "let", "parameter", "const":
		return lsproto.CompletionItemKindVariable
	case "class", "local class":
		return lsproto.CompletionItemKindClass
	case "interface", "type", "alias":
		return lsproto.CompletionItemKindInterface
	case "module", "namespace", "external module name":
		return lsproto.CompletionItemKindModule
	case "enum", "const enum":
		return lsproto.CompletionItemKindEnum
	case "keyword":
		return lsproto.CompletionItemKindKeyword
	case "type parameter":
		return lsproto.CompletionItemKindTypeParameter
	default:
		return lsproto.CompletionItemKindText
	}
}

// NavTreeToDocumentSymbols flattens an analyzer navtree response into an
// LSP document symbol list, recursing into child items and dropping the
// synthetic root ("<global>") node the analyzer always returns.
func NavTreeToDocumentSymbols(uri lsproto.DocumentUri, root analyzer.NavTreeItem) []*lsproto.SymbolInformation {
	var out []*lsproto.SymbolInformation
	appendNavTree(uri, root, "", &out)
	return out
}

func appendNavTree(uri lsproto.DocumentUri, item analyzer.NavTreeItem, container string, out *[]*lsproto.SymbolInformation) {
	if item.Text != "<global>" && len(item.Spans) > 0 {
		selRange := item.Spans[0]
		if item.SelectionSpan != nil {
			selRange = *item.SelectionSpan
		}
		*out = append(*out, &lsproto.SymbolInformation{
			Name:          item.Text,
			Kind:          SymbolKindFromAnalyzer(item.Kind),
			Location:      lsproto.Location{URI: uri, Range: FromAnalyzerRange(selRange)},
			ContainerName: container,
		})
	}
	nextContainer := container
	if item.Text != "<global>" {
		nextContainer = item.Text
	}
	for _, child := range item.ChildItems {
		appendNavTree(uri, child, nextContainer, out)
	}
}

// NavtoToWorkspaceSymbols converts an analyzer navto response into LSP
// workspace symbols.
func NavtoToWorkspaceSymbols(items []analyzer.NavtoItem) []*lsproto.SymbolInformation {
	out := make([]*lsproto.SymbolInformation, len(items))
	for i, it := range items {
		out[i] = &lsproto.SymbolInformation{
			Name:          it.Name,
			Kind:          SymbolKindFromAnalyzer(it.Kind),
			Location:      lsproto.Location{URI: PathToURI(it.File), Range: FromAnalyzerRange(analyzer.AnalyzerRange{Start: it.Start, End: it.End})},
			ContainerName: it.ContainerName,
		}
	}
	return out
}
