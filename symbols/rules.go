package symbols

type role int

const (
	def  role = iota // identifiers are declared
	use              // identifiers are referenced
	walk             // structural: statements and nested forms
)

type slot struct {
	field string
	role  role
}

// rule lists the fields of a node kind in evaluation order.
type rule []slot

func defs(f string) slot { return slot{f, def} }
func uses(f string) slot { return slot{f, use} }
func nest(f string) slot { return slot{f, walk} }

// kindRules drives the generic walk. Kinds needing their own scoping are
// handled in Walker.fallback instead.
var kindRules = map[string]rule{
	"Program":                  {nest("body")},
	"BlockStatement":           {nest("body")},
	"StaticBlock":              {nest("body")},
	"ExpressionStatement":      {uses("expression")},
	"VariableDeclaration":      {nest("declarations")},
	"VariableDeclarator":       {defs("id"), uses("init")},
	"IfStatement":              {uses("test"), nest("consequent"), nest("alternate")},
	"ConditionalExpression":    {uses("test"), uses("consequent"), uses("alternate")},
	"WhileStatement":           {uses("test"), nest("body")},
	"DoWhileStatement":         {nest("body"), uses("test")},
	"ForStatement":             {nest("init"), uses("test"), uses("update"), nest("body")},
	"ForInStatement":           {defs("left"), uses("right"), nest("body")},
	"ForOfStatement":           {defs("left"), uses("right"), nest("body")},
	"SwitchStatement":          {uses("discriminant"), nest("cases")},
	"SwitchCase":               {uses("test"), nest("consequent")},
	"LabeledStatement":         {nest("body")},
	"ThrowStatement":           {uses("argument")},
	"BinaryExpression":         {uses("left"), uses("right")},
	"LogicalExpression":        {uses("left"), uses("right")},
	"UnaryExpression":          {uses("argument")},
	"UpdateExpression":         {uses("argument")},
	"AwaitExpression":          {uses("argument")},
	"YieldExpression":          {uses("argument")},
	"SpreadElement":            {uses("argument")},
	"ArrayExpression":          {uses("elements")},
	"ObjectExpression":         {nest("properties")},
	"SequenceExpression":       {uses("expressions")},
	"TemplateLiteral":          {uses("expressions")},
	"TaggedTemplateExpression": {uses("tag"), uses("quasi")},
	"NewExpression":            {uses("callee"), uses("arguments")},
	"ChainExpression":          {uses("expression")},
	"ClassDeclaration":         {defs("id"), uses("superClass"), nest("body")},
	"ClassExpression":          {uses("superClass"), nest("body")},
	"ClassBody":                {nest("body")},

	"Literal":              nil,
	"TemplateElement":      nil,
	"ThisExpression":       nil,
	"Super":                nil,
	"EmptyStatement":       nil,
	"DebuggerStatement":    nil,
	"BreakStatement":       nil,
	"ContinueStatement":    nil,
	"ExportAllDeclaration": nil,
}
