// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package reports

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog maps the report vocabulary onto warehouse tables and columns.
type Catalog struct {
	Sales     SalesTable     `yaml:"sales"`
	Purchases PurchasesTable `yaml:"purchases"`
	Inventory InventoryTable `yaml:"inventory"`
	Ledger    LedgerTable    `yaml:"ledger"`
}

// SalesTable holds one row per sale line.
type SalesTable struct {
	Table    string `yaml:"table"`
	Date     string `yaml:"date"`
	Branch   string `yaml:"branch"`
	Product  string `yaml:"product"`
	Quantity string `yaml:"quantity"`
	Amount   string `yaml:"amount"`
}

// PurchasesTable holds one row per purchase order line.
type PurchasesTable struct {
	Table    string `yaml:"table"`
	Date     string `yaml:"date"`
	Branch   string `yaml:"branch"`
	Supplier string `yaml:"supplier"`
	Quantity string `yaml:"quantity"`
	Amount   string `yaml:"amount"`
}

// InventoryTable holds current stock per branch and product.
type InventoryTable struct {
	Table        string `yaml:"table"`
	Branch       string `yaml:"branch"`
	Product      string `yaml:"product"`
	OnHand       string `yaml:"on_hand"`
	ReorderLevel string `yaml:"reorder_level"`
}

// LedgerTable holds general ledger entries.
type LedgerTable struct {
	Table   string `yaml:"table"`
	Date    string `yaml:"date"`
	Branch  string `yaml:"branch"`
	Account string `yaml:"account"`
	Debit   string `yaml:"debit"`
	Credit  string `yaml:"credit"`
}

// DefaultCatalog returns the built-in table layout.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Sales: SalesTable{
			Table: "sales", Date: "sale_date", Branch: "branch",
			Product: "product", Quantity: "quantity", Amount: "amount",
		},
		Purchases: PurchasesTable{
			Table: "purchases", Date: "purchase_date", Branch: "branch",
			Supplier: "supplier", Quantity: "quantity", Amount: "amount",
		},
		Inventory: InventoryTable{
			Table: "inventory", Branch: "branch", Product: "product",
			OnHand: "quantity_on_hand", ReorderLevel: "reorder_level",
		},
		Ledger: LedgerTable{
			Table: "ledger_entries", Date: "entry_date", Branch: "branch",
			Account: "account", Debit: "debit", Credit: "credit",
		},
	}
}

// LoadCatalog reads a catalog file. Entries missing from the file keep
// their default names.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report catalog: %w", err)
	}
	cat := DefaultCatalog()
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("failed to parse report catalog: %w", err)
	}
	return cat, nil
}
