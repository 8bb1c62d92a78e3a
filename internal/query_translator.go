package internal

import (
	"strings"

	"github.com/lychee-technology/legacybridge"
)

// TranslatorOptions selects the rewriting behaviour of a QueryTranslator.
type TranslatorOptions struct {
	TableMatch   legacybridge.TableMatchMode
	FieldRewrite legacybridge.FieldRewriteMode
}

// DefaultTranslatorOptions reproduces the legacy adapter: literal table
// replacement followed by one whole-word pass per field alias.
func DefaultTranslatorOptions() TranslatorOptions {
	return TranslatorOptions{
		TableMatch:   legacybridge.TableMatchLiteral,
		FieldRewrite: legacybridge.FieldRewriteSequential,
	}
}

// QueryTranslator rewrites application-facing query text into the legacy
// naming convention. It holds no mutable state.
type QueryTranslator struct {
	registry legacybridge.SchemaRegistry
	options  TranslatorOptions
}

// NewQueryTranslator creates a translator over registry. Unknown option
// values fall back to the defaults.
func NewQueryTranslator(registry legacybridge.SchemaRegistry, options TranslatorOptions) *QueryTranslator {
	defaults := DefaultTranslatorOptions()
	if options.TableMatch != legacybridge.TableMatchIdentifier {
		options.TableMatch = defaults.TableMatch
	}
	if options.FieldRewrite != legacybridge.FieldRewriteSinglePass {
		options.FieldRewrite = defaults.FieldRewrite
	}
	return &QueryTranslator{registry: registry, options: options}
}

// Translate rewrites query for table. Tables without configuration are
// returned unchanged.
func (t *QueryTranslator) Translate(query, table string) string {
	legacyTable, hasAlias := t.registry.TableAlias(table)
	renameTable := hasAlias && table != "" && legacyTable != table
	fields := t.registry.FieldMap(table)

	if !renameTable && fields.IsEmpty() {
		return query
	}

	rewritten := query
	if renameTable {
		rewritten = t.rewriteTable(rewritten, table, legacyTable)
	}
	if fields.IsEmpty() {
		return rewritten
	}

	tokens := tokenizeQuery(rewritten)
	if t.options.FieldRewrite == legacybridge.FieldRewriteSinglePass {
		rewriteFieldsSinglePass(tokens, fields)
	} else {
		rewriteFieldsSequential(tokens, fields)
	}
	return joinQueryTokens(tokens)
}

func (t *QueryTranslator) rewriteTable(query, table, legacyTable string) string {
	if t.options.TableMatch == legacybridge.TableMatchIdentifier {
		tokens := tokenizeQuery(query)
		for i, tok := range tokens {
			if name, ok := tok.identName(); ok && name == table {
				tokens[i] = tok.renamed(legacyTable)
			}
		}
		return joinQueryTokens(tokens)
	}
	return strings.ReplaceAll(query, table, legacyTable)
}

// rewriteFieldsSequential runs one pass per alias in configured order. A
// token renamed by an earlier pass is visible to later passes.
func rewriteFieldsSequential(tokens []queryToken, fields legacybridge.FieldMap) {
	fields.Each(func(alias legacybridge.FieldAlias) {
		if alias.IsIdentity() {
			return
		}
		for i, tok := range tokens {
			if name, ok := tok.identName(); ok && name == alias.Application {
				tokens[i] = tok.renamed(alias.Legacy)
			}
		}
	})
}

// rewriteFieldsSinglePass renames each original token at most once.
func rewriteFieldsSinglePass(tokens []queryToken, fields legacybridge.FieldMap) {
	for i, tok := range tokens {
		name, ok := tok.identName()
		if !ok {
			continue
		}
		if legacy, mapped := fields.Legacy(name); mapped && legacy != name {
			tokens[i] = tok.renamed(legacy)
		}
	}
}
