package dto

// DashboardDateLayout formats chamadosPorData days the way the web client expects.
const DashboardDateLayout = "02/01/2006"

// DashboardResponse keeps the key names of the existing dashboard client.
type DashboardResponse struct {
	Total                   int                  `json:"total"`
	TotalAbertos            int                  `json:"totalAbertos"`
	TotalEmAndamento        int                  `json:"totalEmAndamento"`
	TotalFinalizados        int                  `json:"totalFinalizados"`
	ChamadosPorStatus       []StatusQuantity     `json:"chamadosPorStatus"`
	ChamadosPorSetor        []SectorQuantity     `json:"chamadosPorSetor"`
	RankingTecnicos         []TechnicianQuantity `json:"rankingTecnicos"`
	ChamadosPorData         []DayQuantity        `json:"chamadosPorData"`
	ChamadosPorTipoProblema []ProblemQuantity    `json:"chamadosPorTipoProblema"`
}

type StatusQuantity struct {
	Status     string `json:"status"`
	Quantidade int    `json:"quantidade"`
}

type SectorQuantity struct {
	Setor      string `json:"setor"`
	Quantidade int    `json:"quantidade"`
}

type TechnicianQuantity struct {
	TecnicoID  string `json:"tecnicoId"`
	Tecnico    string `json:"tecnico"`
	Quantidade int    `json:"quantidade"`
}

type DayQuantity struct {
	Data       string `json:"data"`
	Quantidade int    `json:"quantidade"`
}

type ProblemQuantity struct {
	TipoProblema string `json:"tipoProblema"`
	Quantidade   int    `json:"quantidade"`
}
