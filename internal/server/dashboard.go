package server

import "html/template"

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Venue Scraper</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .container { max-width: 800px; margin: 0 auto; }
        .status { padding: 20px; border-radius: 5px; margin: 20px 0; }
        .success { background-color: #d4edda; border: 1px solid #c3e6cb; }
        .error { background-color: #f8d7da; border: 1px solid #f5c6cb; }
        .info { background-color: #cce7ff; border: 1px solid #b3d9ff; }
        button { padding: 10px 20px; margin: 10px; background: #007bff; color: white; border: none; border-radius: 5px; cursor: pointer; }
        button:hover { background: #0056b3; }
        .progress { margin: 20px 0; }
        pre { background: #f8f9fa; padding: 15px; border-radius: 5px; overflow-x: auto; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Venue Scraper</h1>
        <div class="info">
            <p>This tool scrapes venue data from KheloMore for multiple cities in India.</p>
            <p>Cities to scrape: {{.CityCount}}</p>
            <p><strong>Data being scraped:</strong></p>
            <ul>
                <li>Venue Name</li>
                <li>Price &amp; Timing</li>
                <li>Address</li>
                <li>Rating &amp; Number of Raters</li>
                <li>About Venue</li>
                <li>Available Sports</li>
                <li>Amenities</li>
                <li>Highlights</li>
                <li>Facilities (via modal)</li>
                <li>Venue Rules (via modal)</li>
                <li>Offers</li>
            </ul>
        </div>

        <button onclick="startScraping()">Start Scraping</button>
        <button onclick="checkStatus()">Check Status</button>
        <button onclick="downloadCSV()">Download CSV</button>

        <div id="status" class="progress"></div>

        <script>
            async function startScraping() {
                document.getElementById('status').innerHTML = '<div class="info">Starting scraping process...</div>';
                try {
                    const response = await fetch('/start_scraping', {method: 'POST'});
                    const result = await response.json();
                    if (response.ok) {
                        document.getElementById('status').innerHTML = '<div class="success">' + result.message + '</div>';
                    } else {
                        document.getElementById('status').innerHTML = '<div class="error">' + result.error + '</div>';
                    }
                } catch (error) {
                    document.getElementById('status').innerHTML = '<div class="error">Error: ' + error.message + '</div>';
                }
            }

            async function checkStatus() {
                try {
                    const response = await fetch('/status');
                    const result = await response.json();
                    document.getElementById('status').innerHTML =
                        '<div class="info">' +
                        '<h3>Scraping Status</h3>' +
                        '<p>Running: ' + result.running + '</p>' +
                        '<p>Total venues scraped: ' + result.total_venues + '</p>' +
                        '<p>Cities completed: ' + result.scraped_cities.length + '</p>' +
                        '<p>Cities failed: ' + result.failed_cities.length + '</p>' +
                        '<p>Last updated: ' + result.last_updated + '</p>' +
                        '</div>';
                } catch (error) {
                    document.getElementById('status').innerHTML = '<div class="error">Error: ' + error.message + '</div>';
                }
            }

            function downloadCSV() {
                window.location.href = '/download/venues.csv';
            }
        </script>
    </div>
</body>
</html>
`))
