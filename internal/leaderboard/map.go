package leaderboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/iwatkot/fatracingbot/internal/race"
	"github.com/iwatkot/fatracingbot/internal/route"
)

// The display surface only needs a self-contained document with the
// course polyline and one labelled marker per tracked rider.
var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>#map { height: 100vh; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 13);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {maxZoom: 19}).addTo(map);
L.polyline({{.Track}}, {color: 'blue'}).addTo(map);
{{range .Markers}}L.marker([{{.Lat}}, {{.Lon}}]).addTo(map).bindPopup({{.Popup}});
{{end}}</script>
</body>
</html>
`))

type marker struct {
	Lat   float64
	Lon   float64
	Popup string
}

type mapData struct {
	CenterLat float64
	CenterLon float64
	Track     template.JS
	Markers   []marker
}

func renderMap(r route.Route, tracks []race.Track) (string, error) {
	pairs := make([][2]float64, len(r.Points))
	for i, p := range r.Points {
		pairs[i] = [2]float64{p.Lat, p.Lon}
	}
	trackJSON, err := json.Marshal(pairs)
	if err != nil {
		return "", err
	}

	data := mapData{
		CenterLat: r.Points[0].Lat,
		CenterLon: r.Points[0].Lon,
		Track:     template.JS(trackJSON),
	}

	for _, track := range tracks {
		bib := "-"
		if track.Bib != nil {
			bib = fmt.Sprintf("%d", *track.Bib)
		}
		popup := fmt.Sprintf(
			"<b>Имя:</b> %s<br><b>Категория:</b> %s<br><b>Номер:</b> %s",
			track.FullName, track.Category, bib,
		)
		data.Markers = append(data.Markers, marker{
			Lat:   track.Fix.Lat,
			Lon:   track.Fix.Lon,
			Popup: popup,
		})
	}

	var sb strings.Builder
	if err := mapTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
