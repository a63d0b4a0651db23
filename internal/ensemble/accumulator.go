package ensemble

import "math"

// partial is one worker's share of the weighted sum. The value sum is kept as an
// unevaluated double-double (hi+lo) and the weight as an exact integer.
type partial struct {
	hi, lo float64
	weight uint64
}

// add accumulates v*w. The product is split exactly into prod+err with FMA.
func (p *partial) add(v float64, w uint64) {
	fw := float64(w)
	prod := v * fw
	err := math.FMA(v, fw, -prod)
	p.addDD(prod, err)
	p.weight += w
}

func (p *partial) merge(o partial) {
	p.addDD(o.hi, o.lo)
	p.weight += o.weight
}

func (p *partial) addDD(hi, lo float64) {
	s, e := twoSum(p.hi, hi)
	if math.IsInf(s, 0) || math.IsNaN(s) {
		p.hi, p.lo = s, 0
		return
	}
	e += p.lo + lo
	p.hi, p.lo = fastTwoSum(s, e)
}

// quotient narrows (hi+lo)/weight to float64, with one correction step.
func (p *partial) quotient() (float64, error) {
	if p.weight == 0 {
		return 0, ErrZeroWeight
	}
	w := float64(p.weight)
	q := p.hi / w
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return q, nil
	}
	r := math.FMA(-q, w, p.hi) + p.lo
	return q + r/w, nil
}

func twoSum(a, b float64) (float64, float64) {
	s := a + b
	bb := s - a
	return s, (a - (s - bb)) + (b - bb)
}

// fastTwoSum requires |a| >= |b| or a == 0.
func fastTwoSum(a, b float64) (float64, float64) {
	s := a + b
	return s, b - (s - a)
}
