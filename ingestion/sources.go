package ingestion

// DefaultSources is the fixed list of pages loaded by a plain ingestion run.
var DefaultSources = []string{
	"https://en.wikipedia.org/wiki/Formula_One",
	"https://www.formula1.com/en/latest",
	"https://www.formula1.com/en/racing/2023.html",
	"https://www.formula1.com/en/racing/2022.html",
	"https://www.formula1.com/en/racing/2021.html",
	"https://www.formula1.com/en/racing/2020.html",
	"https://www.formula1.com/en/racing/2019.html",
	"https://www.formula1.com/en/racing/2018.html",
	"https://en.wikipedia.org/wiki/List_of_Formula_One_drivers",
	"https://en.wikipedia.org/wiki/List_of_Formula_One_World_Drivers%27_Champions",
	"https://www.formula1.com/en/results/2025/races",
	"https://www.formula1.com/en/results",
	"https://www.forbes.com/sites/brettknight/2024/12/10/formula-1s-highest-paid-drivers-2024",
	"https://motorsporttickets.com/blog/f1-driver-salaries-how-much-formula-1-drivers-earn",
	"https://en.wikipedia.org/wiki/2025_Formula_One_World_Championship",
}
