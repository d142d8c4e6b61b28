package gazetteer

import "github.com/mohammed-shakir/garage-geo/internal/core/model"

// district office coordinates, administrative code order (11110 .. 11740)
var seoulDistricts = []District{
	{Name: "종로구", Center: model.Coordinate{Lat: 37.573050, Lng: 126.979189}},
	{Name: "중구", Center: model.Coordinate{Lat: 37.563843, Lng: 126.997602}},
	{Name: "용산구", Center: model.Coordinate{Lat: 37.532527, Lng: 126.990470}},
	{Name: "성동구", Center: model.Coordinate{Lat: 37.563456, Lng: 127.036821}},
	{Name: "광진구", Center: model.Coordinate{Lat: 37.538617, Lng: 127.082375}},
	{Name: "동대문구", Center: model.Coordinate{Lat: 37.574524, Lng: 127.039660}},
	{Name: "중랑구", Center: model.Coordinate{Lat: 37.606324, Lng: 127.092584}},
	{Name: "성북구", Center: model.Coordinate{Lat: 37.589400, Lng: 127.016742}},
	{Name: "강북구", Center: model.Coordinate{Lat: 37.639610, Lng: 127.025657}},
	{Name: "도봉구", Center: model.Coordinate{Lat: 37.668768, Lng: 127.047163}},
	{Name: "노원구", Center: model.Coordinate{Lat: 37.654358, Lng: 127.056473}},
	{Name: "은평구", Center: model.Coordinate{Lat: 37.602784, Lng: 126.929164}},
	{Name: "서대문구", Center: model.Coordinate{Lat: 37.579225, Lng: 126.936800}},
	{Name: "마포구", Center: model.Coordinate{Lat: 37.566324, Lng: 126.901491}},
	{Name: "양천구", Center: model.Coordinate{Lat: 37.517016, Lng: 126.866642}},
	{Name: "강서구", Center: model.Coordinate{Lat: 37.550937, Lng: 126.849642}},
	{Name: "구로구", Center: model.Coordinate{Lat: 37.495472, Lng: 126.887536}},
	{Name: "금천구", Center: model.Coordinate{Lat: 37.456872, Lng: 126.895229}},
	{Name: "영등포구", Center: model.Coordinate{Lat: 37.526436, Lng: 126.896004}},
	{Name: "동작구", Center: model.Coordinate{Lat: 37.512400, Lng: 126.939252}},
	{Name: "관악구", Center: model.Coordinate{Lat: 37.478406, Lng: 126.951613}},
	{Name: "서초구", Center: model.Coordinate{Lat: 37.483574, Lng: 127.032661}},
	{Name: "강남구", Center: model.Coordinate{Lat: 37.517236, Lng: 127.047325}},
	{Name: "송파구", Center: model.Coordinate{Lat: 37.514543, Lng: 127.105872}},
	{Name: "강동구", Center: model.Coordinate{Lat: 37.530126, Lng: 127.123771}},
}

// Seoul returns the built-in table of Seoul's 25 districts.
func Seoul() *Gazetteer {
	g, err := New(seoulDistricts)
	if err != nil {
		panic(err)
	}
	return g
}
