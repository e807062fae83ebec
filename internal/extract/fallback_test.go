package extract

import (
	"testing"

	"github.com/mnakata/islandhop/internal/model"
)

func TestFallbackRoutePlanning(t *testing.T) {
	req := fallbackExtract("我想去直岛和丰岛，怎么安排比较好？")
	if req.Category != model.CategoryRoutePlanning {
		t.Errorf("category = %s, want route_planning", req.Category)
	}
	if len(req.DestinationOptions) != 2 {
		t.Fatalf("destinations = %v, want [直岛 丰岛]", req.DestinationOptions)
	}
	if req.DestinationOptions[0] != "直岛" || req.DestinationOptions[1] != "丰岛" {
		t.Errorf("destinations = %v, want [直岛 丰岛]", req.DestinationOptions)
	}
	if req.Confidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", req.Confidence)
	}
}

func TestFallbackTimeQueryWithClockTime(t *testing.T) {
	req := fallbackExtract("15:30到高松机场，还能去直岛吗？")
	if req.Category != model.CategoryTimeQuery {
		t.Errorf("category = %s, want time_query", req.Category)
	}
	if req.Departure.Location != "高松机场" {
		t.Errorf("departure = %q, want 高松机场", req.Departure.Location)
	}
	if req.Departure.Time != "15:30" {
		t.Errorf("time = %q, want 15:30", req.Departure.Time)
	}
	if req.Departure.Mode != "飞机" {
		t.Errorf("mode = %q, want 飞机", req.Departure.Mode)
	}
	if len(req.DestinationOptions) != 1 || req.DestinationOptions[0] != "直岛" {
		t.Errorf("destinations = %v, want [直岛]", req.DestinationOptions)
	}
}

func TestFallbackTimeKeptWithoutDeparturePlace(t *testing.T) {
	req := fallbackExtract("15:30还能去直岛吗")
	if req.Category != model.CategoryTimeQuery {
		t.Errorf("category = %s, want time_query", req.Category)
	}
	if req.Departure.Location != "" {
		t.Errorf("departure = %q, want none named", req.Departure.Location)
	}
	if req.Departure.Time != "15:30" {
		t.Errorf("time = %q, want 15:30 even with no departure place", req.Departure.Time)
	}
}

func TestFallbackAfternoonHourShift(t *testing.T) {
	req := fallbackExtract("下午3点到高松港，可以去丰岛吗")
	if req.Departure.Time != "15:00" {
		t.Errorf("time = %q, want 15:00", req.Departure.Time)
	}
	if req.Category != model.CategoryTimeQuery {
		t.Errorf("category = %s, want time_query", req.Category)
	}
}

func TestFallbackMorningHourNotShifted(t *testing.T) {
	req := fallbackExtract("早上9点从高松港出发去小豆岛")
	if req.Departure.Time != "09:00" {
		t.Errorf("time = %q, want 09:00", req.Departure.Time)
	}
}

func TestFallbackEveningWithMinutes(t *testing.T) {
	req := fallbackExtract("晚上8点30到高松港还有船去直岛吗")
	if req.Departure.Time != "20:30" {
		t.Errorf("time = %q, want 20:30", req.Departure.Time)
	}
}

func TestFallbackScheduleWordsWinFirst(t *testing.T) {
	req := fallbackExtract("直岛和丰岛的船班次时间表")
	if req.Category != model.CategoryTimeQuery {
		t.Errorf("category = %s, want time_query (schedule words outrank route planning)", req.Category)
	}
}

func TestFallbackConvenience(t *testing.T) {
	req := fallbackExtract("直岛和犬岛哪个方便去？")
	if req.Category != model.CategoryConvenienceComparison {
		t.Errorf("category = %s, want convenience_comparison", req.Category)
	}
}

func TestFallbackPrice(t *testing.T) {
	req := fallbackExtract("去小豆岛的船票多少钱")
	if req.Category != model.CategoryPriceComparison {
		t.Errorf("category = %s, want price_comparison", req.Category)
	}
}

func TestFallbackGeneralConsultationLowConfidence(t *testing.T) {
	req := fallbackExtract("濑户内海的艺术节值得去吗")
	if req.Category != model.CategoryGeneralConsultation {
		t.Errorf("category = %s, want general_consultation", req.Category)
	}
	if req.Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6 with no place hits", req.Confidence)
	}
}

func TestFindPlacesLongestFirst(t *testing.T) {
	hits := findPlaces("从高松机场到高松港再去直岛")
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.name
	}
	want := []string{"高松机场", "高松港", "直岛"}
	if len(names) != len(want) {
		t.Fatalf("hits = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("hit %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFindTimeClockFormBeatsBareForm(t *testing.T) {
	if got := findTime("9:05的船和10点的船"); got != "09:05" {
		t.Errorf("findTime = %q, want 09:05", got)
	}
}
