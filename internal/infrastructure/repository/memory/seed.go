package memory

import (
	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
)

const LeagueIDDynastyA = "dynasty-serie-a-2026"

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:                  LeagueIDDynastyA,
			Name:                "Dynasty Serie A",
			SlotLimitByPosition: league.DefaultSlotLimits(),
			IndemnityAllowance:  50,
			MinClaimStake:       2,
		},
	}
}

func SeedMembers() []member.Member {
	return []member.Member{
		{ID: "mbr-admin", LeagueID: LeagueIDDynastyA, Name: "Commissioner FC", Role: member.RoleAdmin, Budget: 500, Active: true},
		{ID: "mbr-boca", LeagueID: LeagueIDDynastyA, Name: "Boca Seniors", Role: member.RoleManager, Budget: 500, Active: true},
		{ID: "mbr-real", LeagueID: LeagueIDDynastyA, Name: "Real Sociedaddy", Role: member.RoleManager, Budget: 500, Active: true},
		{ID: "mbr-ajax", LeagueID: LeagueIDDynastyA, Name: "Ajax Treesdown", Role: member.RoleManager, Budget: 500, Active: true},
	}
}

func SeedPlayers() []player.Player {
	return []player.Player{
		{ID: "pl-gk-01", Name: "Mike Maignan", Position: player.PositionGoalkeeper, OriginTeam: "Milan", Quotation: 18},
		{ID: "pl-gk-02", Name: "Yann Sommer", Position: player.PositionGoalkeeper, OriginTeam: "Inter", Quotation: 16},
		{ID: "pl-gk-03", Name: "Wojciech Szczesny", Position: player.PositionGoalkeeper, OriginTeam: "Juventus", Quotation: 14, ExitReason: player.ExitRetired},
		{ID: "pl-def-01", Name: "Alessandro Bastoni", Position: player.PositionDefender, OriginTeam: "Inter", Quotation: 15},
		{ID: "pl-def-02", Name: "Gleison Bremer", Position: player.PositionDefender, OriginTeam: "Juventus", Quotation: 14},
		{ID: "pl-def-03", Name: "Theo Hernandez", Position: player.PositionDefender, OriginTeam: "Milan", Quotation: 17, ExitReason: player.ExitAbroad},
		{ID: "pl-def-04", Name: "Giovanni Di Lorenzo", Position: player.PositionDefender, OriginTeam: "Napoli", Quotation: 13},
		{ID: "pl-mid-01", Name: "Nicolo Barella", Position: player.PositionMidfielder, OriginTeam: "Inter", Quotation: 20},
		{ID: "pl-mid-02", Name: "Khvicha Kvaratskhelia", Position: player.PositionMidfielder, OriginTeam: "Napoli", Quotation: 24, ExitReason: player.ExitAbroad},
		{ID: "pl-mid-03", Name: "Davide Frattesi", Position: player.PositionMidfielder, OriginTeam: "Inter", Quotation: 14},
		{ID: "pl-mid-04", Name: "Matteo Ricci", Position: player.PositionMidfielder, OriginTeam: "Frosinone", Quotation: 8, ExitReason: player.ExitRelegated},
		{ID: "pl-fwd-01", Name: "Lautaro Martinez", Position: player.PositionForward, OriginTeam: "Inter", Quotation: 30},
		{ID: "pl-fwd-02", Name: "Victor Osimhen", Position: player.PositionForward, OriginTeam: "Napoli", Quotation: 28},
		{ID: "pl-fwd-03", Name: "Dusan Vlahovic", Position: player.PositionForward, OriginTeam: "Juventus", Quotation: 22},
		{ID: "pl-fwd-04", Name: "Moise Kean", Position: player.PositionForward, OriginTeam: "Fiorentina", Quotation: 18},
	}
}
