package shopping

import (
	"fmt"
	"math"
	"strings"
)

// UnitFamily 單位家族
type UnitFamily string

const (
	FamilyWeight  UnitFamily = "weight"
	FamilyVolume  UnitFamily = "volume"
	FamilySpoon   UnitFamily = "spoon"
	FamilyCount   UnitFamily = "count"
	FamilyUnknown UnitFamily = "unknown"
)

// 各家族的基準單位
const (
	BaseWeight = "g"
	BaseVolume = "ml"
	BaseCount  = "pièces"
)

// 單位換算表（小寫），值為換算到基準單位的倍數
var (
	weightUnits = map[string]float64{
		"g":  1,
		"kg": 1000,
		"mg": 0.001,
	}
	volumeUnits = map[string]float64{
		"ml": 1,
		"l":  1000,
		"cl": 10,
		"dl": 100,
	}
	spoonUnits = map[string]float64{
		"cuillère à café":  5,
		"cuillère à soupe": 15,
		"tasse":            250,
		"verre":            200,
	}
	countUnits = map[string]float64{
		"pièce":    1,
		"pièces":   1,
		"gousse":   1,
		"gousses":  1,
		"morceau":  1,
		"morceaux": 1,
		"tranche":  1,
		"tranches": 1,
	}
)

// BaseQuantity 換算到基準單位後的數量
type BaseQuantity struct {
	Value    float64
	BaseUnit string
	Family   UnitFamily
}

func unitKey(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// Classify 依單位字串判斷單位家族，不做模糊比對
func Classify(unit string) UnitFamily {
	key := unitKey(unit)
	switch {
	case hasUnit(weightUnits, key):
		return FamilyWeight
	case hasUnit(volumeUnits, key):
		return FamilyVolume
	case hasUnit(spoonUnits, key):
		return FamilySpoon
	case hasUnit(countUnits, key):
		return FamilyCount
	default:
		return FamilyUnknown
	}
}

func hasUnit(table map[string]float64, key string) bool {
	_, ok := table[key]
	return ok
}

// BaseFamily 回傳可互相彙整的家族，湯匙類併入容量
func BaseFamily(unit string) UnitFamily {
	family := Classify(unit)
	if family == FamilySpoon {
		return FamilyVolume
	}
	return family
}

// Compatible 判斷兩個單位是否可以彙整
func Compatible(a, b string) bool {
	fa := BaseFamily(a)
	return fa != FamilyUnknown && fa == BaseFamily(b)
}

// ToBase 將數量換算為家族的基準單位；未知單位原樣回傳
func ToBase(quantity float64, unit string) BaseQuantity {
	key := unitKey(unit)
	switch Classify(unit) {
	case FamilyWeight:
		return BaseQuantity{Value: quantity * weightUnits[key], BaseUnit: BaseWeight, Family: FamilyWeight}
	case FamilyVolume:
		return BaseQuantity{Value: quantity * volumeUnits[key], BaseUnit: BaseVolume, Family: FamilyVolume}
	case FamilySpoon:
		return BaseQuantity{Value: quantity * spoonUnits[key], BaseUnit: BaseVolume, Family: FamilyVolume}
	case FamilyCount:
		return BaseQuantity{Value: quantity, BaseUnit: BaseCount, Family: FamilyCount}
	default:
		return BaseQuantity{Value: quantity, BaseUnit: unit, Family: FamilyUnknown}
	}
}

// FromBase 將基準數量轉為最易讀的單位
func FromBase(value float64, family UnitFamily) (float64, string, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, "", fmt.Errorf("invalid base quantity %v", value)
	}

	switch family {
	case FamilyWeight:
		// 以捨入後的值判斷門檻，避免出現 1000 g
		if small := roundTo(value, 1); small < 1000 {
			return small, "g", nil
		}
		return roundTo(value/1000, 2), "kg", nil
	case FamilyVolume, FamilySpoon:
		if small := roundTo(value, 1); small < 1000 {
			return small, "ml", nil
		}
		return roundTo(value/1000, 2), "L", nil
	case FamilyCount:
		count := math.Round(value)
		if count > 1 {
			return count, "pièces", nil
		}
		return count, "pièce", nil
	default:
		return 0, "", fmt.Errorf("cannot convert from base for unit family %q", family)
	}
}

func roundTo(value float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(value*p) / p
}
