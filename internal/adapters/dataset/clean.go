package dataset

import "strconv"

// Fallback labels used by Clean.
const (
	UnknownLabel  = "Unknown"
	DefaultIncome = "<=50K"
	incomeColumn  = "income"
)

// Categorical and numeric columns of the adult census layout.
var (
	categoricalColumns = map[string]bool{
		"workclass":      true,
		"education":      true,
		"occupation":     true,
		"marital-status": true,
		"relationship":   true,
		"race":           true,
		"sex":            true,
		"native-country": true,
	}
	numericColumns = map[string]bool{
		"age":            true,
		"fnlwgt":         true,
		"education-num":  true,
		"capital-gain":   true,
		"capital-loss":   true,
		"hours-per-week": true,
	}
)

// Clean returns a copy of t with categorical gaps filled, income defaulted and
// numeric columns coerced to non-negative numbers. Other columns are copied as is.
func Clean(t *Table) *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(t.Rows)),
	}

	for i, row := range t.Rows {
		cleaned := make([]Value, len(row))
		for j, v := range row {
			col := t.Columns[j]
			switch {
			case categoricalColumns[col]:
				cleaned[j] = withDefault(v, UnknownLabel)
			case col == incomeColumn:
				cleaned[j] = withDefault(v, DefaultIncome)
			case numericColumns[col]:
				cleaned[j] = nonNegative(v)
			default:
				cleaned[j] = v
			}
		}
		out.Rows[i] = cleaned
	}

	return out
}

func withDefault(v Value, def string) Value {
	if v.Missing {
		return Value{Raw: def}
	}
	return v
}

func nonNegative(v Value) Value {
	n := 0.0
	if v.IsNum && v.Num > 0 {
		n = v.Num
	}
	return Value{Raw: strconv.FormatFloat(n, 'f', -1, 64), Num: n, IsNum: true}
}
