package domain

// Menu es el conjunto de botones que acompaña a una respuesta.
type Menu int

const (
	MenuNone Menu = iota
	MenuMain
	MenuSettings
	MenuDecision // Bought / Didn't buy para Reply.Opportunity
)

func (m Menu) String() string {
	switch m {
	case MenuMain:
		return "main"
	case MenuSettings:
		return "settings"
	case MenuDecision:
		return "decision"
	default:
		return "none"
	}
}

// Reply es lo que el bot contesta al operador, independiente del transporte.
type Reply struct {
	Text        string
	Menu        Menu
	Opportunity *Opportunity // sólo con MenuDecision
}
