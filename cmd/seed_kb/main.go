package main

import (
	"context"
	"log"
	"time"

	"commandcenter-be/internal/config"
	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/repository/specification"
	"commandcenter-be/internal/repository/unitofwork"
	"commandcenter-be/pkg/database"
	"commandcenter-be/pkg/embedding"
	"commandcenter-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

type seedDoc struct {
	sourceId  string
	title     string
	folder    string
	content   string
	isContext bool
}

// Demo documentation for a small off-grid installation. Enough to exercise
// search, citations, and the always-loaded context path end to end.
var seedDocs = []seedDoc{
	{
		sourceId:  "seed-system-profile",
		title:     "System Profile",
		folder:    "reference",
		isContext: true,
		content: `Installation profile.

Battery bank: 48V LiFePO4, 30kWh usable capacity. Reserve floor: 20% state of charge. Inverter: 8kW continuous, 12kW surge. Solar array: 12kW peak across two strings. Grid connection: none (off-grid). Critical loads: well pump, refrigeration, network equipment.`,
	},
	{
		sourceId: "seed-inverter-manual",
		title:    "Inverter Operating Manual",
		folder:   "manuals",
		content: `Inverter operating procedures.

Startup sequence: close the battery disconnect first, wait for the inverter self-test to complete (about 40 seconds), then close the AC output breaker. Shutdown is the reverse order.

Fault codes: E01 indicates battery undervoltage, check state of charge before resetting. E04 indicates overtemperature, verify fan operation and clear airflow around the cabinet. E07 indicates AC overload, shed loads before restarting.

Firmware updates must be applied with the AC output open and battery above 50% state of charge.`,
	},
	{
		sourceId: "seed-battery-maintenance",
		title:    "Battery Maintenance Procedure",
		folder:   "procedures",
		content: `Quarterly battery maintenance.

Inspect terminal torque on every cell connection (8Nm for M8 terminals). Record per-cell voltages at rest; cells deviating more than 50mV from the pack average need a balancing cycle. Check the enclosure for moisture and verify heater operation before winter. Never perform terminal work with the inverter running.`,
	},
	{
		sourceId: "seed-load-policy",
		title:    "Load Shedding Policy",
		folder:   "policies",
		content: `Load shedding order under low battery conditions.

At 40% state of charge, defer all discretionary loads (mining rigs, EV charging). At 30%, shut down non-critical circuits and notify the operator. At 20%, only critical loads remain: well pump, refrigeration, network equipment. Restoration follows the reverse order once charging resumes and state of charge passes 35%.`,
	},
	{
		sourceId: "seed-wiring-overview",
		title:    "DC Wiring Overview",
		folder:   "manuals",
		content: `DC wiring layout.

String A and String B land on separate MPPT controllers, each fused at 30A. The battery bus uses 4/0 cable with a 250A class T fuse at the positive terminal. All DC runs are labeled at both ends; torque specs for bus connections are 12Nm. The troubleshooting guide for ground faults is in the inverter manual, section 5.`,
	},
}

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var provider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbedModel)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	uowFactory := unitofwork.NewRepositoryFactory(db)
	ctx := context.Background()

	for _, sd := range seedDocs {
		if err := seedOne(ctx, uowFactory, provider, cfg, sd); err != nil {
			color.Red("FAIL  %s: %v", sd.sourceId, err)
			continue
		}
		color.Green("OK    %s (%s)", sd.sourceId, sd.title)
	}

	color.Cyan("Seeding complete.")
}

func seedOne(ctx context.Context, uowFactory unitofwork.RepositoryFactory, provider embedding.Provider, cfg *config.Config, sd seedDoc) error {
	uow := uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.DocumentRepository().FindOne(ctx, specification.BySourceId{SourceId: sd.sourceId})
	if err != nil {
		return err
	}

	docId := uuid.New()
	if existing != nil {
		docId = existing.Id
	}

	pieces := utils.SplitText(sd.content, cfg.KB.ChunkTokens, cfg.KB.OverlapTokens)
	chunks := make([]*entity.Chunk, 0, len(pieces))
	totalTokens := 0
	for i, piece := range pieces {
		vector, err := provider.Generate(ctx, piece, embedding.TaskRetrievalDocument)
		if err != nil {
			return err
		}
		tokens := utils.CountTokens(piece)
		totalTokens += tokens
		chunks = append(chunks, &entity.Chunk{
			Id:         uuid.New(),
			DocumentId: docId,
			ChunkIndex: i,
			Content:    piece,
			TokenCount: tokens,
			Embedding:  vector,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	if existing != nil {
		existing.Title = sd.title
		existing.Folder = sd.folder
		existing.Content = sd.content
		existing.TokenCount = totalTokens
		existing.IsContext = sd.isContext
		existing.LastSyncedAt = &now
		existing.SyncError = ""
		existing.UpdatedAt = &now
		if err := uow.DocumentRepository().Update(ctx, existing); err != nil {
			return err
		}
	} else {
		doc := &entity.Document{
			Id:           docId,
			SourceId:     sd.sourceId,
			Title:        sd.title,
			Folder:       sd.folder,
			Content:      sd.content,
			TokenCount:   totalTokens,
			IsContext:    sd.isContext,
			LastSyncedAt: &now,
			CreatedAt:    now,
		}
		if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
			return err
		}
	}

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, docId); err != nil {
		return err
	}
	if err := uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return err
	}

	return uow.Commit()
}
