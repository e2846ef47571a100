package interest

// =============================================================================
// PRESET RATE TABLES
// =============================================================================
// Published Italian rates, in the JSON shape read by factory.ParseRates.
// They seed an empty store; production data comes from the rate ingestion
// workflow.

// DefaultLegaleRatesJSON is the statutory rate (art. 1284 c.c.), set yearly
// by decree of the Ministry of Economy.
const DefaultLegaleRatesJSON = `[
  {"category": "legale", "percentage": "1.00", "valid_from": "2010-01-01", "valid_to": "2010-12-31", "source": "DM 4/12/2009"},
  {"category": "legale", "percentage": "1.50", "valid_from": "2011-01-01", "valid_to": "2011-12-31", "source": "DM 7/12/2010"},
  {"category": "legale", "percentage": "2.50", "valid_from": "2012-01-01", "valid_to": "2013-12-31", "source": "DM 12/12/2011"},
  {"category": "legale", "percentage": "1.00", "valid_from": "2014-01-01", "valid_to": "2014-12-31", "source": "DM 12/12/2013"},
  {"category": "legale", "percentage": "0.50", "valid_from": "2015-01-01", "valid_to": "2015-12-31", "source": "DM 11/12/2014"},
  {"category": "legale", "percentage": "0.20", "valid_from": "2016-01-01", "valid_to": "2016-12-31", "source": "DM 11/12/2015"},
  {"category": "legale", "percentage": "0.10", "valid_from": "2017-01-01", "valid_to": "2017-12-31", "source": "DM 7/12/2016"},
  {"category": "legale", "percentage": "0.30", "valid_from": "2018-01-01", "valid_to": "2018-12-31", "source": "DM 13/12/2017"},
  {"category": "legale", "percentage": "0.80", "valid_from": "2019-01-01", "valid_to": "2019-12-31", "source": "DM 12/12/2018"},
  {"category": "legale", "percentage": "0.05", "valid_from": "2020-01-01", "valid_to": "2020-12-31", "source": "DM 12/12/2019"},
  {"category": "legale", "percentage": "0.01", "valid_from": "2021-01-01", "valid_to": "2021-12-31", "source": "DM 11/12/2020"},
  {"category": "legale", "percentage": "1.25", "valid_from": "2022-01-01", "valid_to": "2022-12-31", "source": "DM 13/12/2021"},
  {"category": "legale", "percentage": "5.00", "valid_from": "2023-01-01", "valid_to": "2023-12-31", "source": "DM 13/12/2022"},
  {"category": "legale", "percentage": "2.50", "valid_from": "2024-01-01", "valid_to": "2024-12-31", "source": "DM 29/11/2023"},
  {"category": "legale", "percentage": "2.00", "valid_from": "2025-01-01", "source": "DM 10/12/2024"}
]`

// DefaultMoratorioRatesJSON is the late-payment rate for commercial
// transactions (D.Lgs. 231/2002): ECB reference rate + 8 points, fixed each
// semester.
const DefaultMoratorioRatesJSON = `[
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2019-01-01", "valid_to": "2019-06-30", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2019-07-01", "valid_to": "2019-12-31", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2020-01-01", "valid_to": "2020-06-30", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2020-07-01", "valid_to": "2020-12-31", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2021-01-01", "valid_to": "2021-06-30", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2021-07-01", "valid_to": "2021-12-31", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2022-01-01", "valid_to": "2022-06-30", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "8.00",  "valid_from": "2022-07-01", "valid_to": "2022-12-31", "source": "BCE 0.00 + 8"},
  {"category": "moratorio", "percentage": "10.50", "valid_from": "2023-01-01", "valid_to": "2023-06-30", "source": "BCE 2.50 + 8"},
  {"category": "moratorio", "percentage": "12.00", "valid_from": "2023-07-01", "valid_to": "2023-12-31", "source": "BCE 4.00 + 8"},
  {"category": "moratorio", "percentage": "12.50", "valid_from": "2024-01-01", "valid_to": "2024-06-30", "source": "BCE 4.50 + 8"},
  {"category": "moratorio", "percentage": "12.25", "valid_from": "2024-07-01", "valid_to": "2024-12-31", "source": "BCE 4.25 + 8"},
  {"category": "moratorio", "percentage": "11.15", "valid_from": "2025-01-01", "valid_to": "2025-06-30", "source": "BCE 3.15 + 8"},
  {"category": "moratorio", "percentage": "10.15", "valid_from": "2025-07-01", "source": "BCE 2.15 + 8"}
]`
