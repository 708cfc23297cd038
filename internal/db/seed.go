package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/example/lms/internal/core/tree"
)

// fixtures is a small legacy-shaped dataset covering the historical layouts the
// migration and cleanup engines understand.
var fixtures = map[string]any{
	"Formateurs": map[string]any{
		"f1": map[string]any{
			"prenom": "Marie", "nom": "Curie", "email": "marie@example.com",
			"biographie": "Physicienne et chimiste", "specialites": "Physique, Chimie",
		},
	},
	"Etudiants": map[string]any{
		"e1": map[string]any{"prenom": "Ana", "nom": "Diaz", "email": "ana@example.com"},
		"e2": map[string]any{"prenom": "Louis", "nom": "Martin", "courriel": "louis@example.com", "dateInscription": 1693555200000},
	},
	"Administrateurs": map[string]any{
		"a1": map[string]any{"prenom": "Chloé", "nom": "Bernard", "email": "chloe@example.com"},
	},
	"Formations": map[string]any{
		"c1": map[string]any{
			"titre": "Introduction à Go", "description": "Les bases du langage",
			"prix": "49,90", "niveau": "débutant", "formateur": "f1", "duree": "6h30",
			"modules": []any{
				"m1",
				map[string]any{
					"titre": "Goroutines", "contenu": "Concurrence légère",
					"evaluations": map[string]any{
						"q1": map[string]any{"titre": "Quiz goroutines", "type": "qcm", "noteMax": 20, "seuil": 10},
					},
				},
				42,
			},
			"enrollments": map[string]any{
				"e1": map[string]any{"statut": "actif", "date": "2023-09-01T08:00:00Z"},
			},
		},
	},
	"Modules": map[string]any{
		"m1": map[string]any{"titre": "Installation", "ordre": 1, "formation": "c1"},
	},
	"Inscriptions": map[string]any{
		"i1": map[string]any{"apprenant": "e2", "formation": "c1", "statut": "terminé"},
	},
	"Progression": map[string]any{
		"e1": map[string]any{
			"c1": map[string]any{"m1": map[string]any{"completed": true, "best": 80}, "progression": 10},
		},
	},
	"Avis": map[string]any{
		"c1": map[string]any{
			"av1": map[string]any{"apprenant": "e1", "note": 5, "commentaire": "Très clair"},
		},
	},
}

// SeedFixtures populates the database with the legacy development fixtures.
// Existing rows at the same paths are replaced.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)

	for _, root := range tree.SortedKeys(fixtures) {
		value, err := tree.Normalize(fixtures[root])
		if err != nil {
			return fmt.Errorf("seed %s: %w", root, err)
		}
		leaves, err := tree.Flatten(root, value)
		if err != nil {
			return fmt.Errorf("seed %s: %w", root, err)
		}
		for _, leaf := range leaves {
			if _, err := database.Exec(
				"INSERT OR REPLACE INTO nodes (path, value, updated_at) VALUES (?, ?, ?)",
				leaf.Path, leaf.Value, now,
			); err != nil {
				return fmt.Errorf("seed %s: %w", root, err)
			}
		}
	}
	return nil
}

// Fixtures returns a copy of the legacy development fixtures.
func Fixtures() map[string]any {
	v, _ := tree.Normalize(fixtures)
	m, _ := v.(map[string]any)
	return m
}
