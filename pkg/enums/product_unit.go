package enums

import "fmt"

// ProductUnit describes how a product is measured at the till. Weight units
// allow fractional quantities; countable units require whole numbers.
type ProductUnit string

const (
	ProductUnitPiece ProductUnit = "piece"
	ProductUnitPack  ProductUnit = "pack"
	ProductUnitBox   ProductUnit = "box"
	ProductUnitKg    ProductUnit = "kg"
	ProductUnitGram  ProductUnit = "g"
	ProductUnitLiter ProductUnit = "l"
)

var validProductUnits = []ProductUnit{
	ProductUnitPiece,
	ProductUnitPack,
	ProductUnitBox,
	ProductUnitKg,
	ProductUnitGram,
	ProductUnitLiter,
}

var weightUnits = map[ProductUnit]struct{}{
	ProductUnitKg:    {},
	ProductUnitGram:  {},
	ProductUnitLiter: {},
}

// String implements fmt.Stringer.
func (u ProductUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known ProductUnit.
func (u ProductUnit) IsValid() bool {
	for _, candidate := range validProductUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsWeight reports whether quantities for this unit may be fractional.
func (u ProductUnit) IsWeight() bool {
	_, ok := weightUnits[u]
	return ok
}

// ParseProductUnit converts raw input into a ProductUnit.
func ParseProductUnit(value string) (ProductUnit, error) {
	for _, candidate := range validProductUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product unit %q", value)
}
