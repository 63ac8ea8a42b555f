package airbnb

import "fmt"

// cardsScript returns up to limit cards from a search results page.
func cardsScript(limit int) string {
	return fmt.Sprintf(`
		(function() {
			var limit = %d;
			var results = [];
			var seen = {};
			var cards = document.querySelectorAll('[data-testid="card-container"], [itemprop="itemListElement"]');
			for (var i = 0; i < cards.length && results.length < limit; i++) {
				var c = cards[i];
				var link = c.querySelector('a[href*="/rooms/"]');
				if (!link || !link.href || seen[link.href]) continue;
				seen[link.href] = true;

				var text = function(sel) {
					var el = c.querySelector(sel);
					return el ? el.innerText.trim() : '';
				};
				var price = text('[data-testid="price-availability-row"]');
				var m = price.match(/[$₹€£฿]\s*[\d,]+/);

				var rating = '';
				var ratingEl = c.querySelector('[aria-label*="rating"]');
				if (ratingEl) {
					var r = (ratingEl.getAttribute('aria-label') || ratingEl.innerText || '').match(/(\d\.\d+)/);
					rating = r ? r[1] : '';
				}
				var img = c.querySelector('img');

				results.push({
					title:    text('[data-testid="listing-card-title"]'),
					subtitle: text('[data-testid="listing-card-name"]') || text('[data-testid="listing-card-subtitle"]'),
					price:    m ? m[0] : price.split('\n')[0],
					rating:   rating,
					image:    img ? img.src : '',
					url:      link.href.split('?')[0]
				});
			}
			return results;
		})()
	`, limit)
}

const nextPageScript = `
	(function() {
		var next = document.querySelector('a[aria-label="Next"]') ||
		           document.querySelector('[data-testid="pagination-next-button"]');
		return next && next.href ? next.href : '';
	})()
`

const detailScript = `
	(function() {
		var result = {title: '', description: '', rating: '', images: [], features: [], lat: 0, lng: 0};

		var h1 = document.querySelector('h1');
		if (h1) result.title = h1.innerText.trim();

		var desc = document.querySelector('[data-section-id="DESCRIPTION_DEFAULT"] span');
		if (desc) result.description = desc.innerText.trim().substring(0, 1000);

		var ratingEl = document.querySelector('[data-testid="pdp-reviews-highlight-banner-host-rating"] div, button[aria-label*="rating"]');
		if (ratingEl) {
			var r = (ratingEl.innerText || ratingEl.getAttribute('aria-label') || '').match(/(\d\.\d+)/);
			result.rating = r ? r[1] : '';
		}

		var imgs = document.querySelectorAll('img[src*="muscache"]');
		for (var i = 0; i < imgs.length && result.images.length < 8; i++) {
			if (result.images.indexOf(imgs[i].src) < 0) result.images.push(imgs[i].src);
		}

		var amenities = document.querySelectorAll('[data-section-id="AMENITIES_DEFAULT"] div > div > div');
		for (var j = 0; j < amenities.length && result.features.length < 10; j++) {
			var t = amenities[j].innerText.trim();
			if (t && t.indexOf('\n') < 0 && result.features.indexOf(t) < 0) result.features.push(t);
		}

		var map = document.querySelector('a[href*="maps.google.com/maps?ll="]');
		if (map) {
			var ll = map.href.match(/ll=(-?\d+\.\d+),(-?\d+\.\d+)/);
			if (ll) { result.lat = parseFloat(ll[1]); result.lng = parseFloat(ll[2]); }
		}
		return result;
	})()
`
