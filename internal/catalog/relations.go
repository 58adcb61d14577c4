package catalog

import (
	"fmt"
	"sort"
	"strings"

	"paysight/pkg/errors"
	"paysight/pkg/models"
)

// Relation describes one warehouse relation the service reads. Identifiers
// cannot be bound as parameters, so any relation or column name that ends
// up in SQL must come from here.
type Relation struct {
	Name    string
	Columns []models.Column
	// Keys order raw selections deterministically
	Keys []string
	// Periodic relations carry Year and Quarter
	Periodic bool
}

var (
	colState     = models.Text("State")
	colDistrict  = models.Text("District_name")
	colYear      = models.Integer("Year")
	colQuarter   = models.Integer("Quarter")
	colPincode   = models.Text("Pincode")
	colTxnType   = models.Text("Transaction_type")
	colTxnCount  = models.Integer("Transaction_count")
	colTxnAmount = models.Decimal("Transaction_amount")
	colInsCount  = models.Integer("Insurance_count")
	colInsAmount = models.Decimal("Insurance_amount")
	colRegUsers  = models.Integer("Registered_users")
	colAppOpens  = models.Integer("Number_of_app_opens")
)

var relations = map[string]Relation{
	"agg_trans": {
		Name:     "agg_trans",
		Columns:  []models.Column{colState, colYear, colQuarter, colTxnType, colTxnCount, colTxnAmount},
		Keys:     []string{"State", "Transaction_type"},
		Periodic: true,
	},
	"agg_ins": {
		Name:     "agg_ins",
		Columns:  []models.Column{colState, colYear, colQuarter, colInsCount, colInsAmount},
		Keys:     []string{"State"},
		Periodic: true,
	},
	"agg_user": {
		Name:    "agg_user",
		Columns: []models.Column{models.Text("Brand_name"), models.Integer("User_count")},
		Keys:    []string{"Brand_name"},
	},
	"map_trans": {
		Name:     "map_trans",
		Columns:  []models.Column{colState, colDistrict, colYear, colQuarter, colTxnCount, colTxnAmount},
		Keys:     []string{"State", "District_name"},
		Periodic: true,
	},
	"map_user": {
		Name:     "map_user",
		Columns:  []models.Column{colState, colDistrict, colYear, colQuarter, colRegUsers, colAppOpens},
		Keys:     []string{"State", "District_name"},
		Periodic: true,
	},
	"map_ins": {
		Name:     "map_ins",
		Columns:  []models.Column{colState, colDistrict, colYear, colQuarter, colInsCount, colInsAmount},
		Keys:     []string{"State", "District_name"},
		Periodic: true,
	},
	"top_trans": {
		Name:     "top_trans",
		Columns:  []models.Column{colState, colYear, colQuarter, colPincode, colTxnCount, colTxnAmount},
		Keys:     []string{"State", "Pincode"},
		Periodic: true,
	},
	"top_ins": {
		Name:     "top_ins",
		Columns:  []models.Column{colState, colYear, colQuarter, colPincode, colInsCount, colInsAmount},
		Keys:     []string{"State", "Pincode"},
		Periodic: true,
	},
}

// RelationNames lists every registered relation in name order
func RelationNames() []string {
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupRelation finds a relation by case-insensitive name
func LookupRelation(name string) (Relation, error) {
	rel, ok := relations[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Relation{}, errors.ValidationError("relation", name,
			fmt.Sprintf("unknown relation; expected one of %s", strings.Join(RelationNames(), ", ")))
	}
	return rel, nil
}

// Column resolves a case-insensitive column name to its declaration
func (r Relation) Column(name string) (models.Column, error) {
	for _, col := range r.Columns {
		if strings.EqualFold(col.Name, strings.TrimSpace(name)) {
			return col, nil
		}
	}
	return models.Column{}, errors.ValidationError("column", name,
		fmt.Sprintf("relation %s has no such column", r.Name))
}

// ColumnNames returns the declared column names in order
func (r Relation) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		names[i] = col.Name
	}
	return names
}
