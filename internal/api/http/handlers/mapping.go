package handlers

import (
	"github.com/spec-kit/chamado-service/internal/api/dto"
	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/service"
)

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                ticket.ID,
		Protocol:          ticket.Protocol,
		RequesterID:       ticket.RequesterID,
		RequesterName:     ticket.RequesterName,
		Secretariat:       ticket.Secretariat,
		OriginSector:      ticket.OriginSector,
		DestinationSector: ticket.DestinationSector,
		ProblemType:       ticket.ProblemType,
		OpeningReason:     ticket.OpeningReason,
		Status:            ticket.Status,
		AssigneeID:        ticket.AssigneeID,
		AssigneeName:      ticket.AssigneeName,
		ResolutionReason:  ticket.ResolutionReason,
		Version:           ticket.Version,
		CreatedAt:         ticket.CreatedAt,
		LastTransitionAt:  ticket.LastTransitionAt,
	}
}

func ticketPageResponse(page *service.Page) dto.TicketPageResponse {
	content := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		content = append(content, ticketResponse(&page.Items[i]))
	}
	return dto.TicketPageResponse{
		Content:       content,
		TotalPages:    page.TotalPages,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
	}
}

func historyEntryResponse(entry *domain.HistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:         entry.ID,
		Seq:        entry.Seq,
		Kind:       entry.Kind,
		Author:     entry.AuthorID,
		AuthorName: entry.AuthorName,
		AuthoredAt: entry.AuthoredAt,
		Body:       entry.Body,
	}
}

func ticketHistoryResponse(ticket *domain.Ticket, entries []domain.HistoryEntry) dto.TicketHistoryResponse {
	followUps := make([]dto.HistoryEntryResponse, 0, len(entries))
	for i := range entries {
		followUps = append(followUps, historyEntryResponse(&entries[i]))
	}
	return dto.TicketHistoryResponse{
		TicketResponse: ticketResponse(ticket),
		FollowUps:      followUps,
	}
}

func dashboardResponse(dashboard *service.Dashboard) dto.DashboardResponse {
	resp := dto.DashboardResponse{
		Total:                   dashboard.Total,
		TotalAbertos:            dashboard.Open,
		TotalEmAndamento:        dashboard.InProgress,
		TotalFinalizados:        dashboard.Resolved,
		ChamadosPorStatus:       make([]dto.StatusQuantity, 0, len(dashboard.ByStatus)),
		ChamadosPorSetor:        make([]dto.SectorQuantity, 0, len(dashboard.BySector)),
		RankingTecnicos:         make([]dto.TechnicianQuantity, 0, len(dashboard.Ranking)),
		ChamadosPorData:         make([]dto.DayQuantity, 0, len(dashboard.ByDay)),
		ChamadosPorTipoProblema: make([]dto.ProblemQuantity, 0, len(dashboard.ByProblemType)),
	}
	for _, entry := range dashboard.ByStatus {
		resp.ChamadosPorStatus = append(resp.ChamadosPorStatus, dto.StatusQuantity{Status: string(entry.Status), Quantidade: entry.Count})
	}
	for _, entry := range dashboard.BySector {
		resp.ChamadosPorSetor = append(resp.ChamadosPorSetor, dto.SectorQuantity{Setor: entry.Name, Quantidade: entry.Count})
	}
	for _, entry := range dashboard.Ranking {
		resp.RankingTecnicos = append(resp.RankingTecnicos, dto.TechnicianQuantity{
			TecnicoID:  entry.TechnicianID,
			Tecnico:    entry.TechnicianName,
			Quantidade: entry.Count,
		})
	}
	for _, entry := range dashboard.ByDay {
		resp.ChamadosPorData = append(resp.ChamadosPorData, dto.DayQuantity{
			Data:       entry.Day.Format(dto.DashboardDateLayout),
			Quantidade: entry.Count,
		})
	}
	for _, entry := range dashboard.ByProblemType {
		resp.ChamadosPorTipoProblema = append(resp.ChamadosPorTipoProblema, dto.ProblemQuantity{TipoProblema: entry.Name, Quantidade: entry.Count})
	}
	return resp
}
