package asf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func mockFeature(sceneName, level string) Feature {
	return Feature{
		Type: "Feature",
		Geometry: geojson.NewGeometry(orb.Polygon{{
			{-122, 37}, {-121, 37}, {-121, 38}, {-122, 38}, {-122, 37},
		}}),
		Properties: Properties{
			SceneName:       sceneName,
			FileID:          sceneName + "-SLC",
			Platform:        "Sentinel-1A",
			BeamModeType:    "IW",
			Polarization:    "VV+VH",
			FlightDirection: "ASCENDING",
			ProcessingLevel: level,
			StartTime:       "2024-01-01T00:00:00.000000Z",
			StopTime:        "2024-01-01T00:01:00.000000Z",
		},
	}
}

func TestClient_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if !strings.Contains(r.URL.Path, "/services/search/param") {
			t.Errorf("Expected path /services/search/param, got %s", r.URL.Path)
		}

		response := GeoJSONResponse{
			Type:     "FeatureCollection",
			Features: []Feature{mockFeature("S1A_IW_SLC__1SDV_20240101T000000", "SLC")},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient(server.URL, 30*time.Second)

	result, err := client.Search(context.Background(), SearchParams{
		GranuleList: []string{"S1A_IW_SLC__1SDV_20240101T000000"},
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(result.Features) != 1 {
		t.Errorf("Expected 1 feature, got %d", len(result.Features))
	}
	if result.Features[0].Properties.Platform != "Sentinel-1A" {
		t.Errorf("unexpected platform: %s", result.Features[0].Properties.Platform)
	}
}

func TestClient_Search_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.Search(context.Background(), SearchParams{})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status 500 in error, got %v", err)
	}
}

func TestClient_Granules_FiltersProcessingLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("granule_list"); got != "sceneA,sceneB" {
			t.Errorf("unexpected granule_list: %q", got)
		}
		response := GeoJSONResponse{
			Type: "FeatureCollection",
			Features: []Feature{
				mockFeature("sceneA", "SLC"),
				mockFeature("sceneA", "METADATA_SLC"),
				mockFeature("sceneB", "SLC"),
			},
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	features, err := client.Granules(context.Background(), []string{"sceneA", "sceneB"})
	if err != nil {
		t.Fatalf("Granules failed: %v", err)
	}

	if len(features) != 2 {
		t.Fatalf("expected 2 SLC features, got %d", len(features))
	}
	for _, f := range features {
		if f.Properties.ProcessingLevel != "SLC" {
			t.Errorf("non-SLC feature leaked through: %s", f.Properties.ProcessingLevel)
		}
	}
}

func TestSearchParams_ToQueryString(t *testing.T) {
	params := SearchParams{
		GranuleList: []string{"sceneA", "sceneB"},
	}

	q := params.ToQueryString()

	for _, want := range []string{
		"granule_list=sceneA%2CsceneB",
		"output=geojson",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query string missing %q: %s", want, q)
		}
	}
}
