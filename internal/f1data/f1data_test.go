package f1data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"f1fantasy/internal/database/dbtest"
	"f1fantasy/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const racesJSON = `{"MRData":{"RaceTable":{"season":"2024","Races":[
	{"season":"2024","round":"1","raceName":"Bahrain Grand Prix","date":"2024-03-02","time":"15:00:00Z",
	 "Circuit":{"circuitId":"bahrain","circuitName":"Bahrain International Circuit","Location":{"locality":"Sakhir","country":"Bahrain"}}},
	{"season":"2024","round":"2","raceName":"Saudi Arabian Grand Prix","date":"2024-03-09",
	 "Circuit":{"circuitId":"jeddah","circuitName":"Jeddah Corniche Circuit","Location":{"locality":"Jeddah","country":"Saudi Arabia"}}}
]}}}`

const constructorsJSON = `{"MRData":{"ConstructorTable":{"Constructors":[
	{"constructorId":"ferrari","name":"Ferrari"},
	{"constructorId":"haas","name":"Haas F1 Team"}
]}}}`

const ferrariJSON = `{"MRData":{"DriverTable":{"Drivers":[
	{"driverId":"leclerc","permanentNumber":"16","code":"LEC","givenName":"Charles","familyName":"Leclerc","dateOfBirth":"1997-10-16","nationality":"Monegasque"},
	{"driverId":"bearman","permanentNumber":"87","code":"BEA","givenName":"Oliver","familyName":"Bearman","dateOfBirth":"2005-05-08","nationality":"British"}
]}}}`

const haasJSON = `{"MRData":{"DriverTable":{"Drivers":[
	{"driverId":"hulkenberg","permanentNumber":"27","code":"HUL","givenName":"Nico","familyName":"Hülkenberg","dateOfBirth":"1987-08-19","nationality":"German"},
	{"driverId":"bearman","permanentNumber":"87","code":"BEA","givenName":"Oliver","familyName":"Bearman","dateOfBirth":"2005-05-08","nationality":"British"}
]}}}`

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("GET /2024/races.json", serve(racesJSON))
	mux.HandleFunc("GET /2024/constructors.json", serve(constructorsJSON))
	mux.HandleFunc("GET /2024/constructors/ferrari/drivers.json", serve(ferrariJSON))
	mux.HandleFunc("GET /2024/constructors/haas/drivers.json", serve(haasJSON))
	mux.HandleFunc("GET /2023/races.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientDecodesSchedule(t *testing.T) {
	srv := newAPI(t)
	client := NewClient(srv.URL + "/")

	races, err := client.Races(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, races, 2)
	assert.Equal(t, "Bahrain Grand Prix", races[0].RaceName)
	assert.Equal(t, "Sakhir", races[0].Circuit.Location.Locality)
	assert.Empty(t, races[1].Time)

	_, err = client.Races(context.Background(), 2023)
	assert.ErrorContains(t, err, "502")
}

func TestImportSeasons(t *testing.T) {
	srv := newAPI(t)
	db := dbtest.New(t)
	ctx := context.Background()
	importer := NewImporter(db, NewClient(srv.URL))

	results, err := importer.Import(ctx, 2023, 2024)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 2023, results[0].Season)
	assert.Error(t, results[0].Err)

	assert.NoError(t, results[1].Err)
	assert.Equal(t, 2, results[1].Races)
	assert.Equal(t, 3, results[1].Drivers)

	repo := repository.NewF1DataRepository(db)
	races, err := repo.ListRaces(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, races, 2)
	assert.Equal(t, "Jeddah", races[1].City)
	assert.Equal(t, "scheduled", races[1].Status)

	drivers, err := repo.ListDrivers(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, drivers, 3)
	assert.Equal(t, "Bearman", drivers[0].LastName)
	assert.Equal(t, "Haas F1 Team", drivers[0].Constructor, "last constructor listed wins")
	assert.Equal(t, 87, drivers[0].Number)

	t.Run("re-import updates in place", func(t *testing.T) {
		res := importer.ImportSeason(ctx, 2024)
		require.NoError(t, res.Err)
		count, err := repo.CountRaces(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := importer.Import(ctx, 2025, 2024)
		assert.Error(t, err)
	})
}
