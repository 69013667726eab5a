package config

// DefaultCities is the list of city slugs scraped when no explicit list is
// configured. Slugs match the venue listing URL path segments.
func DefaultCities() []string {
	return []string{
		"bengaluru", "pune", "mumbai", "surat", "hyderabad", "delhi-&-ncr",
		"ahmedabad", "nagpur", "kolkata", "navi-mumbai", "gurugram", "noida",
		"delhi", "faridabad", "secunderabad", "ghaziabad", "kochi", "jabalpur",
		"jaipur", "chitilappilly", "thrissur", "thiruvananthapuram", "nashik",
		"chandigarh", "kolhapur", "warangal", "margao", "vadodara", "kannur",
		"kollam", "kottayam", "chennai", "nellore", "wayanad", "indore",
		"kozhikode", "malappuram", "palakkad", "coimbatore", "jalgaon",
		"sangli", "nagaur",
	}
}
