package operators

type Operator string

const (
	OperatorEq  Operator = "="
	OperatorNe  Operator = "!="
	OperatorGt  Operator = ">"
	OperatorGte Operator = ">="
	OperatorLt  Operator = "<"
	OperatorLte Operator = "<="
)
