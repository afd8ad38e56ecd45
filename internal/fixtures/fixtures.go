// Package fixtures provides a small dataset and a matching model bundle for
// tests across packages.
//
// The bundle is a two-tree forest over 23 features (17 one-hot + 6 scaled):
//
//	tree 1: Country_Germany <= 0.5 → 60000, else Level_Bachelor <= 0.5 → 30000, else 20000
//	tree 2: scaled Total_cost <= 0 → 26000, else 90000
//
// With zero placeholders Total_cost scales to (0-40000)/30000 < 0, so
// Germany/Bachelor predicts 23000, Germany/Master 28000 and USA/Master 43000.
package fixtures

import (
	"os"
	"path/filepath"
	"testing"
)

// CSV is a six-row dataset covering three countries and two levels.
const CSV = `Country,City,University,Program,Level,Duration_Years,Tuition_USD,Living_Cost_Index,Rent_USD,Visa_Fee_USD,Insurance_USD,Total_cost,KMeans_Cluster,HDBSCAN_Cluster
Germany,Munich,TU Munich,Computer Science,Master,2,500,70.5,1100,75,1100,28000,0,1
Germany,Berlin,Free University,Computer Science,Bachelor,3,300,68,900,75,1000,24000,0,1
Germany,Berlin,TU Berlin,Data Science,Bachelor,3,350,68,950,75,1000,25000,0,-1
Germany,Munich,TU Munich,Physics,Master,2,500,70.5,1150,75,1100,29000,1,1
USA,Boston,MIT,Computer Science,Master,2,55000,83.5,2200,160,1500,98000,2,0
Japan,Tokyo,University of Tokyo,Computer Science,Bachelor,4,,76,1200,30,800,
`

// BundleJSON matches CSV's categories and the fitted column contract.
const BundleJSON = `{
  "meta": {"source": "fixtures"},
  "encoder": {
    "kind": "onehot",
    "columns": ["Country", "City", "University", "Program", "Level"],
    "categories": [
      ["Germany", "Japan", "USA"],
      ["Berlin", "Boston", "Munich", "Tokyo"],
      ["Free University", "MIT", "TU Berlin", "TU Munich", "University of Tokyo"],
      ["Computer Science", "Data Science", "Physics"],
      ["Bachelor", "Master"]
    ],
    "handle_unknown": "error"
  },
  "scaler": {
    "kind": "standard",
    "columns": ["Tuition_USD", "Living_Cost_Index", "Rent_USD", "Visa_Fee_USD", "Insurance_USD", "Total_cost"],
    "mean": [10000, 70, 1200, 90, 1100, 40000],
    "scale": [20000, 5, 400, 40, 200, 30000]
  },
  "regressor": {
    "kind": "random_forest",
    "n_features": 23,
    "trees": [
      {
        "children_left":  [1, -1, 3, -1, -1],
        "children_right": [2, -1, 4, -1, -1],
        "feature":        [0, -2, 15, -2, -2],
        "threshold":      [0.5, -2, 0.5, -2, -2],
        "value":          [40000, 60000, 25000, 30000, 20000]
      },
      {
        "children_left":  [1, -1, -1],
        "children_right": [2, -1, -1],
        "feature":        [22, -2, -2],
        "threshold":      [0.0, -2, -2],
        "value":          [50000, 26000, 90000]
      }
    ]
  }
}
`

// Write stores CSV and BundleJSON under dir and returns their paths.
func Write(tb testing.TB, dir string) (csvPath, bundlePath string) {
	tb.Helper()
	csvPath = filepath.Join(dir, "data_full.csv")
	bundlePath = filepath.Join(dir, "model_components.json")
	if err := os.WriteFile(csvPath, []byte(CSV), 0o644); err != nil {
		tb.Fatalf("write fixture csv: %v", err)
	}
	if err := os.WriteFile(bundlePath, []byte(BundleJSON), 0o644); err != nil {
		tb.Fatalf("write fixture bundle: %v", err)
	}
	return csvPath, bundlePath
}
