package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CardPrinting is one printed/localized version of a card as stored in the cards table.
// ColorIdentity and Keywords hold raw JSON arrays; nil means NULL.
type CardPrinting struct {
	ID              string
	OracleID        string
	Name            string
	Lang            string
	ReleasedAt      *string
	ColorIdentity   *string
	TypeLine        string
	ManaCost        *string
	CMC             float64
	Rarity          *string
	OracleText      *string
	Keywords        *string
	SetCode         string
	CollectorNumber string
}

// CatalogRow is the representative printing of one card identity, as handed to the catalog loader.
// JSON sub-fields are passed through undecoded so malformed values can be defaulted by the caller.
type CatalogRow struct {
	OracleID      string
	Name          string
	ColorIdentity *string
	TypeLine      string
	ManaCost      string
	CMC           float64
	Rarity        string
	OracleText    string
	Keywords      *string
}

// SaveCardPrintings upserts a batch of printings in a single transaction.
func (s *Service) SaveCardPrintings(ctx context.Context, printings []*CardPrinting) error {
	if len(printings) == 0 {
		return nil
	}

	query := `
		INSERT INTO cards (
			id, oracle_id, name, lang, released_at, color_identity, type_line,
			mana_cost, cmc, rarity, oracle_text, keywords, set_code, collector_number, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			oracle_id = excluded.oracle_id,
			name = excluded.name,
			lang = excluded.lang,
			released_at = excluded.released_at,
			color_identity = excluded.color_identity,
			type_line = excluded.type_line,
			mana_cost = excluded.mana_cost,
			cmc = excluded.cmc,
			rarity = excluded.rarity,
			oracle_text = excluded.oracle_text,
			keywords = excluded.keywords,
			set_code = excluded.set_code,
			collector_number = excluded.collector_number,
			last_updated = CURRENT_TIMESTAMP
	`

	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare card insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range printings {
			lang := p.Lang
			if lang == "" {
				lang = "en"
			}
			_, err := stmt.ExecContext(ctx,
				p.ID, p.OracleID, p.Name, lang, p.ReleasedAt, p.ColorIdentity, p.TypeLine,
				p.ManaCost, p.CMC, p.Rarity, p.OracleText, p.Keywords, p.SetCode, p.CollectorNumber,
			)
			if err != nil {
				return fmt.Errorf("failed to save card %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

// GetCatalogRows returns one representative printing per card identity, ordered by name.
// The representative is the earliest release (ties broken by printing ID) so repeated loads agree.
// An empty lang returns printings in any language.
func (s *Service) GetCatalogRows(ctx context.Context, lang string) ([]*CatalogRow, error) {
	query := `
		SELECT oracle_id, name, color_identity, type_line, COALESCE(mana_cost, ''), cmc,
		       COALESCE(rarity, ''), COALESCE(oracle_text, ''), keywords
		FROM (
			SELECT c.*,
			       ROW_NUMBER() OVER (
			           PARTITION BY CASE WHEN c.oracle_id = '' THEN c.name ELSE c.oracle_id END
			           ORDER BY COALESCE(c.released_at, '9999-12-31') ASC, c.id ASC
			       ) AS rn
			FROM cards c
			WHERE ? = '' OR c.lang = ?
		)
		WHERE rn = 1
		ORDER BY name ASC, oracle_id ASC
	`

	rows, err := s.db.Conn().QueryContext(ctx, query, lang, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*CatalogRow
	for rows.Next() {
		var r CatalogRow
		var colorIdentity, keywords sql.NullString
		if err := rows.Scan(
			&r.OracleID, &r.Name, &colorIdentity, &r.TypeLine, &r.ManaCost, &r.CMC,
			&r.Rarity, &r.OracleText, &keywords,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		if colorIdentity.Valid {
			r.ColorIdentity = &colorIdentity.String
		}
		if keywords.Valid {
			r.Keywords = &keywords.String
		}
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}

	return result, nil
}

// CountCardPrintings returns the number of stored printings.
func (s *Service) CountCardPrintings(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}
