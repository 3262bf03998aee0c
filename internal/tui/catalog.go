package tui

import (
	"strings"
	"time"
)

type itemStatus string

const (
	statusAvailable itemStatus = "available"
	statusReserved  itemStatus = "reserved"
	statusSold      itemStatus = "sold"
	statusRented    itemStatus = "rented"
)

var itemStatuses = []itemStatus{statusAvailable, statusReserved, statusSold, statusRented}

var itemCategories = []string{"props", "costumes", "stage", "school project", "indie film"}

type item struct {
	ID          int64
	Title       string
	Category    string
	School      string
	Location    string
	Tags        []string
	Price       int
	Rental      bool
	Status      itemStatus
	Mine        bool
	Description string
	CreatedAt   time.Time
}

func (it item) priceLabel() string {
	if it.Price == 0 {
		return "free"
	}
	s := formatWon(it.Price)
	if it.Rental {
		return s + "/day"
	}
	return s
}

type board string

const (
	boardGeneral board = "general"
	boardRequest board = "prop requests"
)

type post struct {
	ID        int64
	Board     board
	Title     string
	Body      string
	Author    string
	Mine      bool
	CreatedAt time.Time
}

type performance struct {
	ID          int64
	Title       string
	Genre       string
	City        string
	Place       string
	Start       time.Time
	End         time.Time
	University  string
	Description string
	Mine        bool
}

func (p performance) dateRange() string {
	if p.End.IsZero() || p.End.Equal(p.Start) {
		return p.Start.Format("2006.01.02")
	}
	return p.Start.Format("2006.01.02") + "-" + p.End.Format("01.02")
}

func (p performance) onDay(d time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	end := p.End
	if end.IsZero() {
		end = p.Start
	}
	return !day.Before(p.Start) && !day.After(end)
}

var cityOptions = []string{"Seoul", "Gyeonggi", "Incheon", "Busan", "Daegu", "Daejeon", "Gwangju", "Ulsan", "Other"}

// catalog is the in-memory listing data behind the browse screens. Forms
// append to it; nothing is sent to the backend.
type catalog struct {
	items        []item
	posts        []post
	performances []performance
	nextID       int64
}

func (c *catalog) item(id int64) (item, bool) {
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return item{}, false
}

func (c *catalog) updateItem(it item) {
	for i := range c.items {
		if c.items[i].ID == it.ID {
			c.items[i] = it
			return
		}
	}
}

func (c *catalog) addItem(it item) item {
	c.nextID++
	it.ID = c.nextID
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	c.items = append(c.items, it)
	return it
}

func (c *catalog) post(id int64) (post, bool) {
	for _, p := range c.posts {
		if p.ID == id {
			return p, true
		}
	}
	return post{}, false
}

func (c *catalog) updatePost(p post) {
	for i := range c.posts {
		if c.posts[i].ID == p.ID {
			c.posts[i] = p
			return
		}
	}
}

func (c *catalog) addPost(p post) post {
	c.nextID++
	p.ID = c.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	c.posts = append([]post{p}, c.posts...)
	return p
}

func (c *catalog) postsOn(b board) []post {
	out := make([]post, 0, len(c.posts))
	for _, p := range c.posts {
		if p.Board == b {
			out = append(out, p)
		}
	}
	return out
}

func (c *catalog) performance(id int64) (performance, bool) {
	for _, p := range c.performances {
		if p.ID == id {
			return p, true
		}
	}
	return performance{}, false
}

func (c *catalog) performancesIn(city string) []performance {
	out := make([]performance, 0, len(c.performances))
	for _, p := range c.performances {
		if city == "" || strings.EqualFold(p.City, city) {
			out = append(out, p)
		}
	}
	return out
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newMockCatalog() *catalog {
	c := &catalog{
		items: []item{
			{ID: 1, Title: "Victorian armchair", Category: "stage", School: "Yonsei University", Location: "Seoul", Tags: []string{"period", "furniture"}, Price: 15000, Rental: true, Status: statusAvailable,
				Description: "Solid wood frame, reupholstered in **burgundy velvet** last spring.\n\n- fits two-person scenes\n- pickup only", CreatedAt: day(2025, 2, 3)},
			{ID: 2, Title: "Hanbok set (2 pcs)", Category: "costumes", School: "Korea University", Location: "Seoul", Tags: []string{"traditional"}, Price: 30000, Rental: true, Status: statusReserved,
				Description: "Women's hanbok, jeogori and chima. Dry-cleaned after every run.", CreatedAt: day(2025, 2, 10)},
			{ID: 3, Title: "Prop swords (foam)", Category: "props", School: "Seoul National University", Location: "Seoul", Tags: []string{"fight", "safe"}, Price: 0, Status: statusAvailable, Mine: true,
				Description: "Three foam-core swords painted silver. Free to a good club.", CreatedAt: day(2025, 1, 21)},
			{ID: 4, Title: "Fog machine 400W", Category: "stage", School: "Busan Arts College", Location: "Busan", Tags: []string{"effects"}, Price: 20000, Rental: true, Status: statusRented,
				Description: "Comes with one litre of fluid. Needs 20 minutes to warm up.", CreatedAt: day(2025, 1, 30)},
			{ID: 5, Title: "1970s school uniforms", Category: "costumes", School: "Chung-Ang University", Location: "Seoul", Tags: []string{"period", "comedy"}, Price: 45000, Status: statusAvailable, Mine: true,
				Description: "Set of six, sizes M to XL.", CreatedAt: day(2025, 2, 14)},
			{ID: 6, Title: "Handheld slate + clapper", Category: "indie film", School: "Dongguk University", Location: "Seoul", Tags: []string{"film"}, Price: 8000, Status: statusSold,
				Description: "Acrylic slate, marker included.", CreatedAt: day(2025, 2, 1)},
		},
		posts: []post{
			{ID: 101, Board: boardGeneral, Title: "Spring showcase lineup is up", Body: "Twelve clubs are in this year. Rehearsal slots open Monday.", Author: "Yonsei Drama", CreatedAt: day(2025, 2, 12)},
			{ID: 102, Board: boardRequest, Title: "Looking for a rotary phone", Body: "Needed for a 1980s piece in March. Rental is fine.", Author: "Hanyang Theatre", CreatedAt: day(2025, 2, 15)},
			{ID: 103, Board: boardGeneral, Title: "Tips for transporting flats", Body: "We used moving blankets and ratchet straps. Happy to share contacts.", Author: "me", Mine: true, CreatedAt: day(2025, 2, 16)},
		},
		performances: []performance{
			{ID: 201, Title: "Our Summer", Genre: "romance / drama", City: "Seoul", Place: "Yonsei Student Union Hall", Start: day(2025, 2, 15), End: day(2025, 2, 17), University: "Yonsei University",
				Description: "Graduating students spend one last summer together. A contemporary piece built on **naturalistic dialogue**."},
			{ID: 202, Title: "Hamlet: Variations", Genre: "classic / tragedy", City: "Seoul", Place: "Daehangno Yegreen Theater", Start: day(2025, 3, 1), End: day(2025, 3, 3), University: "Seoul National University",
				Description: "Shakespeare reworked with minimal set and light so the focus stays on the characters."},
			{ID: 203, Title: "The Art of Laughing", Genre: "comedy", City: "Busan", Place: "Busan Cultural Center Studio", Start: day(2025, 3, 22), End: day(2025, 3, 23), University: "Busan Arts College", Mine: true,
				Description: "A black comedy about a town that forgot how to laugh. Fast pacing, big gestures."},
		},
	}
	c.nextID = 1000
	return c
}
