package types

// Function describes a callable in the query language.
type Function struct {
	MinArgs   int
	MaxArgs   int // -1 for variadic
	Aggregate bool
}

// Functions is the catalog of callable names. Dialects map these names to
// their own SQL.
var Functions = map[string]Function{
	// aggregates
	"count":          {0, 1, true},
	"countIf":        {1, 2, true},
	"sum":            {1, 1, true},
	"sumIf":          {2, 2, true},
	"avg":            {1, 1, true},
	"min":            {1, 1, true},
	"max":            {1, 1, true},
	"any":            {1, 1, true},
	"argMax":         {2, 2, true},
	"argMin":         {2, 2, true},
	"uniq":           {1, -1, true},
	"uniqExact":      {1, -1, true},
	"groupArray":     {1, 1, true},
	"quantile":       {2, 2, true},
	"median":         {1, 1, true},
	"groupUniqArray": {1, 1, true},

	// arrays
	"arrayMap":      {2, -1, false},
	"arrayFilter":   {2, -1, false},
	"arrayExists":   {2, -1, false},
	"arrayJoin":     {1, 1, false},
	"arraySlice":    {2, 3, false},
	"arrayDistinct": {1, 1, false},
	"has":           {2, 2, false},
	"length":        {1, 1, false},
	"empty":         {1, 1, false},
	"notEmpty":      {1, 1, false},

	// strings
	"lower":            {1, 1, false},
	"upper":            {1, 1, false},
	"concat":           {1, -1, false},
	"substring":        {2, 3, false},
	"trim":             {1, 1, false},
	"match":            {2, 2, false},
	"replaceRegexpAll": {3, 3, false},
	"replaceAll":       {3, 3, false},
	"splitByChar":      {2, 2, false},
	"toString":         {1, 1, false},

	// json
	"JSONExtractString":        {2, -1, false},
	"JSONExtractInt":           {2, -1, false},
	"JSONExtractFloat":         {2, -1, false},
	"JSONExtractBool":          {2, -1, false},
	"JSONExtractRaw":           {1, -1, false},
	"JSONExtractKeysAndValues": {2, -1, false},
	"JSONHas":                  {2, -1, false},

	// conditionals and nulls
	"if":        {3, 3, false},
	"multiIf":   {3, -1, false},
	"coalesce":  {1, -1, false},
	"ifNull":    {2, 2, false},
	"isNull":    {1, 1, false},
	"isNotNull": {1, 1, false},
	"tuple":     {1, -1, false},

	// numbers
	"abs":     {1, 1, false},
	"round":   {1, 2, false},
	"floor":   {1, 1, false},
	"ceil":    {1, 1, false},
	"toInt":   {1, 1, false},
	"toFloat": {1, 1, false},

	// dates
	"now":              {0, 0, false},
	"today":            {0, 0, false},
	"toDate":           {1, 1, false},
	"toDateTime":       {1, 2, false},
	"toStartOfDay":     {1, 1, false},
	"toStartOfWeek":    {1, 2, false},
	"toStartOfMonth":   {1, 1, false},
	"toStartOfHour":    {1, 1, false},
	"dateDiff":         {3, 3, false},
	"toUnixTimestamp":  {1, 1, false},
	"toIntervalSecond": {1, 1, false},
	"toIntervalMinute": {1, 1, false},
	"toIntervalHour":   {1, 1, false},
	"toIntervalDay":    {1, 1, false},
	"toIntervalWeek":   {1, 1, false},
	"toIntervalMonth":  {1, 1, false},
	"toIntervalYear":   {1, 1, false},
}

// CheckCall validates a call against the catalog.
func CheckCall(name string, args int) error {
	fn, ok := Functions[name]
	if !ok {
		return UnknownFunctionError{Name: name}
	}
	if args < fn.MinArgs || (fn.MaxArgs >= 0 && args > fn.MaxArgs) {
		return FunctionArityError{Name: name, Got: args, Min: fn.MinArgs, Max: fn.MaxArgs}
	}
	return nil
}
