package mysql

const hotelColumns = `id, name, address, city, country, stars, rooms_number, floors_number, distance_to_airport`

const getHotelSQL = `SELECT ` + hotelColumns + ` FROM hotels WHERE id = ?`

const listHotelsSQL = `SELECT ` + hotelColumns + ` FROM hotels ORDER BY id`

const listReviewsSQL = `
SELECT id, hotel_id, user_id, title, content, overall_rating, created_at
FROM reviews
WHERE hotel_id = ?
ORDER BY created_at, id`

const managesHotelSQL = `
SELECT EXISTS(
  SELECT 1 FROM hotel_managers
  WHERE user_id = ? AND hotel_id = ? AND is_active = 1
)`

// -----------------------------------------------------------------------------
// SCORING
// -----------------------------------------------------------------------------

const scoringColumns = `
  s.hotel_id, s.hotel_name, s.location,
  s.sparkling_score, s.review_component, s.metadata_component,
  s.amenities_rate, s.cleanliness_rate, s.food_beverage, s.sleep_quality, s.internet_quality,
  s.total_reviews, s.hotel_stars, s.distance_to_airport, s.rooms_number, s.floors_number,
  s.ranking, s.last_updated`

const getScoringSQL = `SELECT ` + scoringColumns + ` FROM hotel_scoring s WHERE s.hotel_id = ?`

const topScoringsSQL = `
SELECT ` + scoringColumns + `
FROM hotel_scoring s
WHERE s.ranking > 0
ORDER BY s.ranking ASC, s.hotel_id ASC
LIMIT ?`

const countScoringSQL = `SELECT COUNT(*) FROM hotel_scoring`

// leaderboardSQL is completed with an ORDER BY built from whitelisted columns.
const leaderboardSQL = `
SELECT ` + scoringColumns + `,
  h.name, h.address, h.stars
FROM hotel_scoring s
LEFT JOIN hotels h ON h.id = s.hotel_id
`

// ranking is left untouched on update; the ranking pass owns it.
const upsertScoringSQL = `
INSERT INTO hotel_scoring
  (hotel_id, hotel_name, location,
   sparkling_score, review_component, metadata_component,
   amenities_rate, cleanliness_rate, food_beverage, sleep_quality, internet_quality,
   total_reviews, hotel_stars, distance_to_airport, rooms_number, floors_number,
   ranking, last_updated)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
ON DUPLICATE KEY UPDATE
  hotel_name          = VALUES(hotel_name),
  location            = VALUES(location),
  sparkling_score     = VALUES(sparkling_score),
  review_component    = VALUES(review_component),
  metadata_component  = VALUES(metadata_component),
  amenities_rate      = VALUES(amenities_rate),
  cleanliness_rate    = VALUES(cleanliness_rate),
  food_beverage       = VALUES(food_beverage),
  sleep_quality       = VALUES(sleep_quality),
  internet_quality    = VALUES(internet_quality),
  total_reviews       = VALUES(total_reviews),
  hotel_stars         = VALUES(hotel_stars),
  distance_to_airport = VALUES(distance_to_airport),
  rooms_number        = VALUES(rooms_number),
  floors_number       = VALUES(floors_number),
  last_updated        = VALUES(last_updated)
`

const deleteScoringSQL = `DELETE FROM hotel_scoring WHERE hotel_id = ?`

// Locks every scoring row (and the gaps) until the rank tx ends, so passes
// from different instances serialize.
const lockRankEntriesSQL = `
SELECT hotel_id, sparkling_score, ranking
FROM hotel_scoring
ORDER BY hotel_id
FOR UPDATE`

const setRankingSQL = `UPDATE hotel_scoring SET ranking = ? WHERE hotel_id = ?`
