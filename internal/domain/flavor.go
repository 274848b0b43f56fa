package domain

// Flavor is a tasting tag from a fixed closed set.
type Flavor string

const (
	FlavorBitter      Flavor = "bitter"
	FlavorCaramel     Flavor = "caramel"
	FlavorChocolatey  Flavor = "chocolatey"
	FlavorCoffeeLike  Flavor = "coffee-like"
	FlavorCreamy      Flavor = "creamy"
	FlavorCrisp       Flavor = "crisp"
	FlavorDry         Flavor = "dry"
	FlavorEarthy      Flavor = "earthy"
	FlavorFloral      Flavor = "floral"
	FlavorFruity      Flavor = "fruity"
	FlavorFullBodied  Flavor = "full-bodied"
	FlavorFunky       Flavor = "funky"
	FlavorHerbal      Flavor = "herbal"
	FlavorHoneyed     Flavor = "honeyed"
	FlavorHoppy       Flavor = "hoppy"
	FlavorLightBodied Flavor = "light-bodied"
	FlavorMalty       Flavor = "malty"
	FlavorNutty       Flavor = "nutty"
	FlavorRefreshing  Flavor = "refreshing"
	FlavorRoasty      Flavor = "roasty"
	FlavorSession     Flavor = "session"
	FlavorSmoky       Flavor = "smoky"
	FlavorSmooth      Flavor = "smooth"
	FlavorSour        Flavor = "sour"
	FlavorSpicy       Flavor = "spicy"
	FlavorStrong      Flavor = "strong"
	FlavorSweet       Flavor = "sweet"
	FlavorTart        Flavor = "tart"
	FlavorToasted     Flavor = "toasted"
	FlavorWoody       Flavor = "woody"
	FlavorOther       Flavor = "other"
)

// Flavors lists every accepted flavor tag.
var Flavors = []Flavor{
	FlavorBitter, FlavorCaramel, FlavorChocolatey, FlavorCoffeeLike, FlavorCreamy,
	FlavorCrisp, FlavorDry, FlavorEarthy, FlavorFloral, FlavorFruity,
	FlavorFullBodied, FlavorFunky, FlavorHerbal, FlavorHoneyed, FlavorHoppy,
	FlavorLightBodied, FlavorMalty, FlavorNutty, FlavorRefreshing, FlavorRoasty,
	FlavorSession, FlavorSmoky, FlavorSmooth, FlavorSour, FlavorSpicy,
	FlavorStrong, FlavorSweet, FlavorTart, FlavorToasted, FlavorWoody,
	FlavorOther,
}

var flavorSet = func() map[Flavor]struct{} {
	set := make(map[Flavor]struct{}, len(Flavors))
	for _, f := range Flavors {
		set[f] = struct{}{}
	}
	return set
}()

// Valid reports whether f belongs to the closed set.
func (f Flavor) Valid() bool {
	_, ok := flavorSet[f]
	return ok
}

// OrDefault maps the empty flavor to FlavorOther.
func (f Flavor) OrDefault() Flavor {
	if f == "" {
		return FlavorOther
	}
	return f
}
