package cmd

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysight/internal/catalog"
	"paysight/internal/ui"
)

// scripted answers prompts from a fixed list, in order
type scripted struct {
	t       *testing.T
	answers []string
	asked   []string
}

func (s *scripted) next(message string) string {
	s.asked = append(s.asked, message)
	if len(s.answers) == 0 {
		s.t.Fatalf("no answer left for %q", message)
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a
}

func (s *scripted) Select(message string, options []string, def string) (string, error) {
	return s.next(message), nil
}

func (s *scripted) Input(message, def string) (string, error) {
	return s.next(message), nil
}

func (s *scripted) Password(message string) (string, error) {
	return s.next(message), nil
}

func (s *scripted) Confirm(message string, def bool) (bool, error) {
	return s.next(message) == "yes", nil
}

func usePrompter(t *testing.T, answers ...string) *scripted {
	t.Helper()
	p := &scripted{t: t, answers: answers}
	orig := prompter
	prompter = p
	t.Cleanup(func() { prompter = orig })
	return p
}

func TestExploreOneShot(t *testing.T) {
	writeConfig(t, testConfig)
	mock := mockWarehouse(t)

	expectQuery(mock, `SELECT Transaction_type, SUM(Transaction_amount) FROM agg_trans WHERE Year = ? AND Quarter = ? GROUP BY Transaction_type`).
		WithArgs(2022, 1).
		WillReturnRows(sqlmock.NewRows([]string{"Transaction_type", "total"}).
			AddRow("Recharge & bill payments", []byte("200.4")).
			AddRow("Peer-to-peer payments", []byte("900.6")))

	output, err := execute(t, "explore", "--domain", "Transactions", "--year", "2022", "--quarter", "1",
		"--view", "categories", "--format", "csv")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "transaction_type,total_value\nPeer-to-peer payments,901\nRecharge & bill payments,200\n", output)
}

func TestExploreOneShotTopDistricts(t *testing.T) {
	writeConfig(t, testConfig)
	mock := mockWarehouse(t)

	expectQuery(mock, `SELECT District_name, SUM(Insurance_amount) FROM map_ins WHERE Year = ? AND Quarter = ? GROUP BY District_name`).
		WithArgs(2021, 4).
		WillReturnRows(sqlmock.NewRows([]string{"District_name", "total"}).
			AddRow("pune district", []byte("50")).
			AddRow("bengaluru urban district", []byte("70")).
			AddRow("thane district", []byte("60")))

	output, err := execute(t, "explore", "--domain", "insurance", "--year", "2021", "--quarter", "4",
		"--view", "districts", "--top", "2", "--format", "csv")
	require.NoError(t, err)

	assert.Equal(t, "district_name,total_value\nbengaluru urban district,70\nthane district,60\n", output)
}

func TestExploreRejectsBadSelections(t *testing.T) {
	writeConfig(t, testConfig)
	refuseWarehouse(t)

	_, err := execute(t, "explore", "--domain", "loans", "--year", "2022", "--quarter", "1", "--view", "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")

	_, err = execute(t, "explore", "--domain", "users", "--year", "2022", "--quarter", "1", "--view", "charts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view")
}

func TestExploreInvalidQuarter(t *testing.T) {
	writeConfig(t, testConfig)
	mockWarehouse(t)

	_, err := execute(t, "explore", "--domain", "users", "--year", "2022", "--quarter", "5", "--view", "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be between 1 and 4")
}

func TestExploreInteractiveSession(t *testing.T) {
	writeConfig(t, testConfig)
	mock := mockWarehouse(t)
	p := usePrompter(t,
		"users",           // domain
		"2022",            // year
		"2",               // quarter
		"Headline totals", // view
		"Another view",
		"Top districts",
		"1", // how many
		"Quit",
	)

	expectQuery(mock, `SELECT DISTINCT Year FROM map_user WHERE Year IS NOT NULL ORDER BY Year`).
		WillReturnRows(sqlmock.NewRows([]string{"Year"}).AddRow(int64(2021)).AddRow(int64(2022)))
	expectQuery(mock, `SELECT DISTINCT Quarter FROM map_user WHERE Quarter IS NOT NULL ORDER BY Quarter`).
		WillReturnRows(sqlmock.NewRows([]string{"Quarter"}).AddRow(int64(1)).AddRow(int64(2)))
	expectQuery(mock, `SELECT State, District_name, Year, Quarter, Registered_users, Number_of_app_opens FROM map_user WHERE Year = ? AND Quarter = ? ORDER BY State, District_name`).
		WithArgs(2022, 2).
		WillReturnRows(sqlmock.NewRows([]string{"State", "District_name", "Year", "Quarter", "Registered_users", "Number_of_app_opens"}).
			AddRow("Goa", "north goa district", int64(2022), int64(2), int64(1500), int64(4000)).
			AddRow("Goa", "south goa district", int64(2022), int64(2), int64(2000), int64(5000)))
	expectQuery(mock, `SELECT District_name, SUM(Registered_users) FROM map_user WHERE Year = ? AND Quarter = ? GROUP BY District_name`).
		WithArgs(2022, 2).
		WillReturnRows(sqlmock.NewRows([]string{"District_name", "total"}).
			AddRow("north goa district", []byte("1500")).
			AddRow("south goa district", []byte("2000")))

	output, err := execute(t, "explore", "--format", "csv")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, output, "metric,value\nregistered_users,3500\napp_opens,9000\n")
	assert.Contains(t, output, "district_name,total_value\nsouth goa district,2000\n")
	assert.NotContains(t, output, "north goa district,1500")
	assert.Equal(t, []string{"Domain:", "Year:", "Quarter:", "View:", "What next?", "View:", "How many?", "What next?"}, p.asked)
}

func TestExploreSessionSurvivesLookupFailures(t *testing.T) {
	writeConfig(t, testConfig)
	mock := mockWarehouse(t)
	p := usePrompter(t,
		"users",     // periods lookup fails
		"insurance", // no data
		"users",
		"2022",
		"2",
		"Headline totals",
		"Quit",
	)

	yearsQuery := func(rel string) string {
		return `SELECT DISTINCT Year FROM ` + rel + ` WHERE Year IS NOT NULL ORDER BY Year`
	}
	quartersQuery := func(rel string) string {
		return `SELECT DISTINCT Quarter FROM ` + rel + ` WHERE Quarter IS NOT NULL ORDER BY Quarter`
	}

	expectQuery(mock, yearsQuery("map_user")).
		WillReturnError(fmt.Errorf("dial tcp 127.0.0.1:3306: connect: connection refused"))
	expectQuery(mock, yearsQuery("map_ins")).WillReturnRows(sqlmock.NewRows([]string{"Year"}))
	expectQuery(mock, quartersQuery("map_ins")).WillReturnRows(sqlmock.NewRows([]string{"Quarter"}))
	expectQuery(mock, yearsQuery("map_user")).
		WillReturnRows(sqlmock.NewRows([]string{"Year"}).AddRow(int64(2022)))
	expectQuery(mock, quartersQuery("map_user")).
		WillReturnRows(sqlmock.NewRows([]string{"Quarter"}).AddRow(int64(2)))
	expectQuery(mock, `SELECT State, District_name, Year, Quarter, Registered_users, Number_of_app_opens FROM map_user WHERE Year = ? AND Quarter = ? ORDER BY State, District_name`).
		WithArgs(2022, 2).
		WillReturnRows(sqlmock.NewRows([]string{"State", "District_name", "Year", "Quarter", "Registered_users", "Number_of_app_opens"}).
			AddRow("Goa", "north goa district", int64(2022), int64(2), int64(1500), int64(4000)))

	output, err := execute(t, "explore", "--format", "csv")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, output, "metric,value\nregistered_users,1500\napp_opens,4000\n")
	assert.Equal(t, []string{"Domain:", "Domain:", "Domain:", "Year:", "Quarter:", "View:", "What next?"}, p.asked)
}

func TestExploreNeedsTerminalWithoutFlags(t *testing.T) {
	writeConfig(t, testConfig)
	refuseWarehouse(t)

	orig := prompter
	prompter = ui.SurveyPrompter{}
	t.Cleanup(func() { prompter = orig })

	// go test never runs with a terminal on stdin
	_, err := execute(t, "explore", "--domain", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a terminal")
}

func TestViewsFor(t *testing.T) {
	assert.Contains(t, viewsFor(catalog.DomainTransactions), viewCategories)
	assert.NotContains(t, viewsFor(catalog.DomainInsurance), viewCategories)
	assert.NotContains(t, viewsFor(catalog.DomainUsers), viewPincodes)
	for _, d := range catalog.Domains {
		for _, v := range viewsFor(d) {
			assert.NotEmpty(t, viewLabels[v], v)
		}
	}
}
