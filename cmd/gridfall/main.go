// Package main provides the headless simulation runner: it builds a
// world from a seed and drives the plan-then-execute loop for a fixed
// number of turns.
package main

import (
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/mwpeterson/gridfall/internal/config"
	"github.com/mwpeterson/gridfall/internal/game/ai"
	"github.com/mwpeterson/gridfall/internal/game/engine"
	"github.com/mwpeterson/gridfall/internal/game/grid"
	"github.com/mwpeterson/gridfall/internal/game/unit"
	"github.com/mwpeterson/gridfall/internal/game/world"
	"github.com/mwpeterson/gridfall/internal/observability"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	unitsDir := flag.String("units-dir", "content/units", "path to unit YAML templates directory")
	seed := flag.Uint("seed", 0, "world seed; 0 derives one from the clock")
	turns := flag.Int("turns", 10, "number of turns to simulate")
	tickRate := flag.Float64("tick", 0.1, "decision-timer tick size in seconds")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	worldSeed := uint32(*seed)
	if worldSeed == 0 {
		worldSeed = uint32(time.Now().UnixNano())
	}

	templates, err := unit.LoadTemplates(*unitsDir)
	if err != nil {
		logger.Fatal("loading unit templates", zap.Error(err))
	}
	var playerTmpl, enemyTmpl *unit.Template
	for _, tmpl := range templates {
		switch tmpl.UnitKind() {
		case unit.KindPlayer:
			if playerTmpl == nil {
				playerTmpl = tmpl
			}
		case unit.KindEnemy:
			if enemyTmpl == nil {
				enemyTmpl = tmpl
			}
		}
	}
	if playerTmpl == nil || enemyTmpl == nil {
		logger.Fatal("unit templates must include one player and one enemy archetype",
			zap.Int("loaded", len(templates)),
		)
	}

	w := world.New(observability.Component(logger, "world"))
	err = w.InitGame(worldSeed, world.InitParams{
		Gen: grid.GenParams{
			Width:            cfg.Map.Width,
			Height:           cfg.Map.Height,
			Floors:           cfg.Map.Floors,
			WallDensity:      cfg.Map.WallDensity,
			PlazaSize:        cfg.Map.PlazaSize,
			StairMinDistance: cfg.Map.StairMinDistance,
			EnemyMinDistance: cfg.Map.EnemyMinDistance,
		},
		Player: playerTmpl,
		Enemy:  enemyTmpl,
	})
	if err != nil {
		logger.Fatal("initializing world", zap.Error(err))
	}

	planner := ai.NewPlanner(ai.Config{
		ConeVision:        cfg.AI.ConeVision,
		ConeDotThreshold:  cfg.AI.ConeDotThreshold,
		WanderAttempts:    cfg.AI.WanderAttempts,
		DefaultNoiseLevel: cfg.AI.DefaultNoiseLevel,
		AttackCost:        cfg.Rules.AttackCost,
		AttackRange:       cfg.Rules.AttackRange,
		ReservationRadius: 2,
	}, observability.Component(logger, "ai"))
	controller := engine.NewController(w, planner, observability.Component(logger, "engine"), cfg.Rules.DecisionSeconds)

	stepDelay := time.Duration(cfg.Rules.StepDelayMs) * time.Millisecond

	logger.Info("simulation starting",
		zap.Uint32("seed", worldSeed),
		zap.Int("turns", *turns),
		zap.Duration("startup", time.Since(start)),
	)

	for turn := 1; turn <= *turns; turn++ {
		// Burn the decision window down; a real host would queue player
		// intents here while the timer runs.
		var proc *engine.Processor
		for proc == nil {
			proc = controller.Tick(*tickRate)
		}

		steps := 0
		for proc.Advance() {
			steps++
			if stepDelay > 0 {
				time.Sleep(stepDelay)
			}
		}

		w.PruneDamageEvents(time.Now())

		player, alive := w.Player()
		enemies := 0
		for _, u := range w.Units() {
			if u.Kind == unit.KindEnemy {
				enemies++
			}
		}

		fields := []zap.Field{
			zap.Int("turn", turn),
			zap.Int("mutations", steps),
			zap.Int("enemies", enemies),
			zap.Int("explored", len(w.ExploredTiles())),
		}
		if alive {
			fields = append(fields,
				zap.Int("player_hp", player.Status.HP),
				zap.String("player_condition", player.HealthDescription()),
				zap.String("player_pos", player.Position.Key()),
			)
		}
		logger.Info("turn complete", fields...)

		if !alive {
			logger.Info("player eliminated, stopping")
			break
		}
		if enemies == 0 {
			logger.Info("all enemies eliminated, stopping")
			break
		}
	}

	logger.Info("simulation finished", zap.Duration("elapsed", time.Since(start)))
}
