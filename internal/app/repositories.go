package app

import (
	"github.com/jmoiron/sqlx"

	"github.com/fantadynasty/transfer-market/internal/config"
	"github.com/fantadynasty/transfer-market/internal/domain/auction"
	"github.com/fantadynasty/transfer-market/internal/domain/contract"
	"github.com/fantadynasty/transfer-market/internal/domain/indemnity"
	"github.com/fantadynasty/transfer-market/internal/domain/league"
	"github.com/fantadynasty/transfer-market/internal/domain/market"
	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/domain/movement"
	"github.com/fantadynasty/transfer-market/internal/domain/player"
	"github.com/fantadynasty/transfer-market/internal/domain/roster"
	"github.com/fantadynasty/transfer-market/internal/domain/rubata"
	"github.com/fantadynasty/transfer-market/internal/domain/treasury"
	repocache "github.com/fantadynasty/transfer-market/internal/infrastructure/repository/cache"
	"github.com/fantadynasty/transfer-market/internal/infrastructure/repository/memory"
	"github.com/fantadynasty/transfer-market/internal/infrastructure/repository/postgres"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type repositories struct {
	leagues      league.Repository
	players      player.Repository
	members      member.Repository
	rosters      roster.Repository
	contracts    contract.Repository
	auctions     auction.Repository
	sessions     market.Repository
	queues       rubata.Repository
	settlements  indemnity.Repository
	movements    movement.Repository
	reservations treasury.Repository
	tx           usecase.TxRunner
}

func buildRepositories(cfg config.Config, db *sqlx.DB) repositories {
	var repos repositories
	if db != nil {
		repos = repositories{
			leagues:      postgres.NewLeagueRepository(db),
			players:      postgres.NewPlayerRepository(db),
			members:      postgres.NewMemberRepository(db),
			rosters:      postgres.NewRosterRepository(db),
			contracts:    postgres.NewContractRepository(db),
			auctions:     postgres.NewAuctionRepository(db),
			sessions:     postgres.NewMarketRepository(db),
			queues:       postgres.NewRubataRepository(db),
			settlements:  postgres.NewIndemnityRepository(db),
			movements:    postgres.NewMovementRepository(db),
			reservations: postgres.NewTreasuryRepository(db),
			tx:           postgres.NewTxRunner(db),
		}
	} else {
		leagueRepo := memory.NewLeagueRepository(memory.SeedLeagues())
		playerRepo := memory.NewPlayerRepository(memory.SeedPlayers())
		memberRepo := memory.NewMemberRepository(memory.SeedMembers())
		rosterRepo := memory.NewRosterRepository(nil)
		contractRepo := memory.NewContractRepository(nil, rosterRepo, memberRepo)
		auctionRepo := memory.NewAuctionRepository()
		sessionRepo := memory.NewMarketRepository()
		queueRepo := memory.NewRubataRepository()
		settlementRepo := memory.NewIndemnityRepository()
		movementRepo := memory.NewMovementRepository()
		reservationRepo := memory.NewTreasuryRepository()
		repos = repositories{
			leagues:      leagueRepo,
			players:      playerRepo,
			members:      memberRepo,
			rosters:      rosterRepo,
			contracts:    contractRepo,
			auctions:     auctionRepo,
			sessions:     sessionRepo,
			queues:       queueRepo,
			settlements:  settlementRepo,
			movements:    movementRepo,
			reservations: reservationRepo,
			tx: memory.NewTxRunner(
				leagueRepo, playerRepo, memberRepo, rosterRepo, contractRepo,
				auctionRepo, sessionRepo, queueRepo, settlementRepo,
				movementRepo, reservationRepo),
		}
	}

	// Leagues and players are read-mostly; everything else is contended
	// state that must always hit the source of truth.
	if store := newCacheStore(cfg); store != nil {
		repos.leagues = repocache.NewLeagueRepository(repos.leagues, store)
		repos.players = repocache.NewPlayerRepository(repos.players, store)
	}

	return repos
}
