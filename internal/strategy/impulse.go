package strategy

import "math"

// Impulse is the comparison of the forming window against closed window bodies.
type Impulse struct {
	Body        float64 // |price - window open|
	AverageBody float64
	Multiplier  float64 // Body / AverageBody, 0 without history
	Triggered   bool
	Down        bool
}

// EvaluateImpulse compares the forming window's body against the average
// closed body. An empty average never triggers.
func EvaluateImpulse(open, price, averageBody, threshold float64) Impulse {
	imp := Impulse{
		Body:        math.Abs(price - open),
		AverageBody: averageBody,
		Down:        price < open,
	}
	if averageBody > 0 {
		imp.Multiplier = imp.Body / averageBody
		imp.Triggered = imp.Body > averageBody*threshold
	}
	return imp
}
