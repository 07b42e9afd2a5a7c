// Package tmdb provides a client and provider adapter for The Movie
// Database API.
package tmdb

import "strconv"

// Movie represents TMDB movie metadata.
type Movie struct {
	ID           int64   `json:"id"`
	IMDBID       string  `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	Tagline      string  `json:"tagline"`
	ReleaseDate  string  `json:"release_date"` // "2024-03-01"
	PosterPath   string  `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Runtime      int     `json:"runtime"` // minutes
	Genres       []Genre `json:"genres"`
}

// TV represents TMDB series metadata.
type TV struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"` // "2008-01-20"
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Status       string  `json:"status"`
	Genres       []Genre `json:"genres"`
}

// Genre represents a movie or series genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Image is one artwork entry from the images endpoints.
type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Language    string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// Images holds the artwork collections for one entity.
type Images struct {
	Backdrops []Image `json:"backdrops"`
	Posters   []Image `json:"posters"`
	Logos     []Image `json:"logos"`
}

// Video is one entry from the videos endpoints.
type Video struct {
	Key      string `json:"key"`
	Site     string `json:"site"` // "YouTube"
	Type     string `json:"type"` // "Trailer", "Teaser", ...
	Name     string `json:"name"`
	Language string `json:"iso_639_1"`
	Official bool   `json:"official"`
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

// Year extracts the year from FirstAirDate.
func (t *TV) Year() int {
	return yearOf(t.FirstAirDate)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// searchResponse is the shared shape of the search endpoints.
type searchResponse struct {
	Results []SearchEntry `json:"results"`
}

// SearchEntry is one row from a search or find endpoint.
type SearchEntry struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"` // movies
	Name         string `json:"name"`  // series
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// FindResult is the /3/find/{imdb_id} response.
type FindResult struct {
	MovieResults []SearchEntry `json:"movie_results"`
	TVResults    []SearchEntry `json:"tv_results"`
}

// videosResponse is the videos endpoint response.
type videosResponse struct {
	Results []Video `json:"results"`
}
