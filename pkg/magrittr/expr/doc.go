/*
Package expr provides condition evaluation and literal resolution for
pipeline stages.

# Overview

expr implements the small expression language used by stage guards and by
declarative argument slots. It supports comparison operators, logical
operators, and identifier resolution through a LookupFunc, which typically
closes over a scope chain.

# Expression Syntax

	<expr> := <comparison>
	        | <expr> 'and' <expr>
	        | <expr> 'or' <expr>
	        | 'not' <expr>
	        | '!' <expr>
	        | <value>

	<comparison> := <value> <op> <value>
	<op> := '==' | '!=' | '<' | '>' | '<=' | '>=' | 'contains'
	<value> := 'string' | "string" | number | true | false | null | identifier

# Value Types

Values can be:

  - Quoted strings: 'hello' or "hello"
  - Numbers: 42, 3.14, -1
  - Booleans: true, false
  - Null: null, nil
  - Identifiers: resolved through the lookup function

# Examples

Guard conditions over a scope:

	lookup := func(name string) (any, bool) {
	    v, err := sc.Resolve(ctx, name)
	    return v, err == nil
	}
	ok, _ := expr.Eval("count > 10 and status == 'active'", lookup)

Custom operators:

	e := expr.New(
	    expr.WithCustomOperator("matches", func(left, right any) bool {
	        matched, _ := regexp.MatchString(fmt.Sprintf("%v", right), fmt.Sprintf("%v", left))
	        return matched
	    }),
	)
	ok, _ := e.Evaluate("name matches '^test.*'", lookup)

# Truthiness

Single values are evaluated for truthiness: nil/null is false, bools return
their value, empty strings and zero numbers are false, everything else is
true.
*/
package expr
