package p2p

// DTOs del endpoint adv/search. Solo se usan dentro de este paquete.

// searchRequest es el body del POST de búsqueda de anuncios.
type searchRequest struct {
	Page      int      `json:"page"`
	Rows      int      `json:"rows"`
	PayTypes  []string `json:"payTypes"`
	Asset     string   `json:"asset"`
	Fiat      string   `json:"fiat"`
	TradeType string   `json:"tradeType"`
}

// searchResponse es la lista ordenada de anuncios; el primero es el mejor precio.
type searchResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    []advertItem `json:"data"`
	Total   int          `json:"total"`
}

type advertItem struct {
	Adv        advert     `json:"adv"`
	Advertiser advertiser `json:"advertiser"`
}

// advert trae los importes como strings para no perder precisión.
type advert struct {
	AdvNo                string `json:"advNo"`
	TradeType            string `json:"tradeType"`
	Asset                string `json:"asset"`
	FiatUnit             string `json:"fiatUnit"`
	Price                string `json:"price"`
	SurplusAmount        string `json:"surplusAmount"`
	MinSingleTransAmount string `json:"minSingleTransAmount"`
	MaxSingleTransAmount string `json:"maxSingleTransAmount"`
}

type advertiser struct {
	NickName        string  `json:"nickName"`
	MonthOrderCount int     `json:"monthOrderCount"`
	MonthFinishRate float64 `json:"monthFinishRate"`
}
