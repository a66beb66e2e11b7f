package playerdb

import (
	"context"
	"fmt"
)

// Event-log writes. Append-only, no uniqueness beyond the primary key;
// handlers decide whether a failed append fails the event.

func (db *PlayerDBImpl) CreateConnectEvent(ctx context.Context, row *EventConnect) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create connect event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateDisconnectEvent(ctx context.Context, row *EventDisconnect) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create disconnect event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateEntryEvent(ctx context.Context, row *EventEntry) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create entry event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateChangeTeamEvent(ctx context.Context, row *EventChangeTeam) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create change-team event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateChangeNameEvent(ctx context.Context, row *EventChangeName) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create change-name event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateSuicideEvent(ctx context.Context, row *EventSuicide) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create suicide event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateTeamkillEvent(ctx context.Context, row *EventTeamkill) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create teamkill event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) CreateChatEvent(ctx context.Context, row *EventChat) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create chat event: %w", err)
	}
	return nil
}

func (db *PlayerDBImpl) LogEventFrag(ctx context.Context, row *EventFrag) error {
	if _, err := db.DB.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("failed to log frag event: %w", err)
	}
	return nil
}
